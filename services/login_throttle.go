package services

import (
	"context"
	"math"
)

const ThrottleCooldownCapSeconds = 30

type LoginThrottle interface {
	// LoginWaitSeconds returns how long the user must wait before trying again (0 if no cooldown).
	LoginWaitSeconds(ctx context.Context, username string) (int, error)
	// RecordLoginFailed increments the failure count and starts a cooldown of CooldownSecondsForFailCount(count).
	RecordLoginFailed(ctx context.Context, username string) error
	// RecordLoginSuccess clears the failure count and cooldown.
	RecordLoginSuccess(ctx context.Context, username string) error
}

// CooldownSecondsForFailCount returns min(30, 2^failCount).
func CooldownSecondsForFailCount(failCount int) int {
	s := int(math.Pow(2, float64(failCount)))
	if s > ThrottleCooldownCapSeconds {
		return ThrottleCooldownCapSeconds
	}
	return s
}
