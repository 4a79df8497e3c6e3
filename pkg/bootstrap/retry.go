package bootstrap

import "time"

// Pack download retry policy. The pack fetch is the step most exposed to
// transient load, so it retries with doubling delays; the fixed-version
// binary fetch does not retry because failure there indicates a
// configuration error, not a blip.
const (
	PackDownloadMaxAttempts  = 3
	PackDownloadInitialDelay = 5 * time.Second
)

// NextAttempt decides what follows a failed download attempt.
//
// attempt is the 1-based number of the attempt that just failed. When
// another attempt is allowed, it returns the delay to wait first: the base
// delay doubled once per prior failure. When the attempt cap is reached it
// returns retry=false and the caller must treat the failure as fatal.
func NextAttempt(attempt, maxAttempts int, baseDelay time.Duration) (delay time.Duration, retry bool) {
	if attempt < 1 || attempt >= maxAttempts {
		return 0, false
	}
	return baseDelay << (attempt - 1), true
}
