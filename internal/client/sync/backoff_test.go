package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryDelay_FirstAttemptNearBase(t *testing.T) {
	base := time.Second
	d := retryDelay(base, 2*time.Minute, 1)

	// 20% jitter around the base delay.
	assert.GreaterOrEqual(t, d, 800*time.Millisecond)
	assert.LessOrEqual(t, d, 1200*time.Millisecond)
}

func TestRetryDelay_DoublesPerAttempt(t *testing.T) {
	base := time.Second
	d := retryDelay(base, 2*time.Minute, 3)

	// Third attempt sits around base*4, inside the jitter envelope.
	assert.GreaterOrEqual(t, d, 3200*time.Millisecond)
	assert.LessOrEqual(t, d, 4800*time.Millisecond)
}

func TestRetryDelay_Capped(t *testing.T) {
	d := retryDelay(time.Second, 10*time.Second, 30)
	assert.LessOrEqual(t, d, 12*time.Second, "cap plus jitter bounds the delay")
}

func TestRetryDelay_ZeroAttemptsTreatedAsFirst(t *testing.T) {
	d := retryDelay(time.Second, time.Minute, 0)
	assert.Greater(t, d, time.Duration(0))
}
