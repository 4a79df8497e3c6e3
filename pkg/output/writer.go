package output

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Writer outputs JSONL records for deployment results.
//
// Implementations must be safe for concurrent use. Each Write* method
// emits a complete record as a single line of JSON followed by a newline.
type Writer interface {
	// WriteDeploy emits a deployment result record.
	WriteDeploy(ctx context.Context, rec *DeployRecord) error

	// WriteStatus emits an instance status record.
	WriteStatus(ctx context.Context, rec *StatusRecord) error

	// WriteProbe emits a connectivity probe record.
	WriteProbe(ctx context.Context, rec *ProbeRecord) error

	// WriteError emits an error record.
	WriteError(ctx context.Context, rec *ErrorRecord) error

	// Close flushes any buffered output and releases resources.
	Close() error
}

// JSONLWriter writes records as newline-delimited JSON to an io.Writer.
//
// Writes are serialized using a mutex to ensure atomic line writes (no
// interleaved output).
type JSONLWriter struct {
	w     io.Writer
	jobID string
	mu    sync.Mutex

	closed bool
}

var _ Writer = (*JSONLWriter)(nil)

// NewJSONLWriter creates a new JSONL writer.
//
// jobID is the correlation ID for this CLI invocation.
func NewJSONLWriter(w io.Writer, jobID string) *JSONLWriter {
	return &JSONLWriter{w: w, jobID: jobID}
}

// WriteDeploy emits a deployment result record.
func (jw *JSONLWriter) WriteDeploy(ctx context.Context, rec *DeployRecord) error {
	return jw.writeRecord(ctx, TypeDeploy, rec)
}

// WriteStatus emits an instance status record.
func (jw *JSONLWriter) WriteStatus(ctx context.Context, rec *StatusRecord) error {
	return jw.writeRecord(ctx, TypeStatus, rec)
}

// WriteProbe emits a connectivity probe record.
func (jw *JSONLWriter) WriteProbe(ctx context.Context, rec *ProbeRecord) error {
	return jw.writeRecord(ctx, TypeProbe, rec)
}

// WriteError emits an error record.
func (jw *JSONLWriter) WriteError(ctx context.Context, rec *ErrorRecord) error {
	return jw.writeRecord(ctx, TypeError, rec)
}

// Close marks the writer closed. The underlying writer is not closed;
// that remains the caller's responsibility.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	jw.closed = true
	return nil
}

func (jw *JSONLWriter) writeRecord(ctx context.Context, recType string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	rec := Record{
		Type:  recType,
		TS:    time.Now().UTC(),
		JobID: jw.jobID,
		Data:  data,
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	jw.mu.Lock()
	defer jw.mu.Unlock()
	if jw.closed {
		return io.ErrClosedPipe
	}
	_, err = jw.w.Write(line)
	return err
}
