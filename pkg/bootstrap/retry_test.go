package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextAttempt(t *testing.T) {
	tests := []struct {
		name      string
		attempt   int
		wantDelay time.Duration
		wantRetry bool
	}{
		{name: "first failure waits base delay", attempt: 1, wantDelay: 5 * time.Second, wantRetry: true},
		{name: "second failure doubles", attempt: 2, wantDelay: 10 * time.Second, wantRetry: true},
		{name: "final attempt is fatal", attempt: 3, wantRetry: false},
		{name: "past the cap", attempt: 4, wantRetry: false},
		{name: "zero attempt is invalid", attempt: 0, wantRetry: false},
		{name: "negative attempt is invalid", attempt: -1, wantRetry: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, retry := NextAttempt(tt.attempt, PackDownloadMaxAttempts, PackDownloadInitialDelay)
			assert.Equal(t, tt.wantRetry, retry)
			assert.Equal(t, tt.wantDelay, delay)
		})
	}
}

func TestNextAttemptFullSchedule(t *testing.T) {
	// Walk the whole policy: total sleep before the final attempt is
	// 5s + 10s, and the third failure is terminal.
	var total time.Duration
	attempt := 1
	for {
		delay, retry := NextAttempt(attempt, PackDownloadMaxAttempts, PackDownloadInitialDelay)
		if !retry {
			break
		}
		total += delay
		attempt++
	}

	assert.Equal(t, PackDownloadMaxAttempts, attempt)
	assert.Equal(t, 15*time.Second, total)
}
