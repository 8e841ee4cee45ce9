package quiz

import (
	"errors"
	"math"
)

// baseCoins is the payout for a perfect score on the first attempt.
const baseCoins = 45

// decayPerAttempt is the percentage knocked off per repeated attempt.
const decayPerAttempt = 7

// ErrInvalidAttempt is returned for attempt numbers below 1.
var ErrInvalidAttempt = errors.New("attempt number must be at least 1")

// Reward returns the coins granted for a perfect score on the given attempt.
// Each attempt after the first decays the payout by 7%, floored at the unit,
// reaching zero once the decay passes 100%.
func Reward(attemptNumber int) (int, error) {
	if attemptNumber < 1 {
		return 0, ErrInvalidAttempt
	}

	decayPct := (attemptNumber - 1) * decayPerAttempt
	factor := float64(max(0, 100-decayPct)) / 100
	return int(math.Floor(baseCoins * factor)), nil
}
