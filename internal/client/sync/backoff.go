package sync

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// retryDelay returns how long to wait before the next delivery of an action
// that has already failed attempts times: exponential from base, capped, with
// 20% jitter so parked clients do not stampede the remote when connectivity
// returns.
func retryDelay(base, max time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}

	b := retry.NewExponential(base)
	b = retry.WithCappedDuration(max, b)
	b = retry.WithJitterPercent(20, b)

	var d time.Duration
	for i := 0; i < attempts; i++ {
		next, stop := b.Next()
		if stop {
			break
		}
		d = next
	}
	return d
}
