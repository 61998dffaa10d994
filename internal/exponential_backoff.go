package internal

import (
	"math/rand"
	"time"
)

// Backoff returns a random duration out of [0, slot * 2^attempt), capped at
// maximum. Randomizing over the whole window keeps restarting clients from
// hammering a recovering broker in lockstep.
func Backoff(attempt int64, slot time.Duration, maximum time.Duration) time.Duration {
	if attempt <= 0 || slot <= 0 {
		return 0
	}

	// The shift overflows long before attempt reaches 63, and a window that
	// wide exceeds any sane maximum anyway.
	if attempt > 32 {
		return maximum
	}
	slots := rand.Int63n(int64(1) << attempt)

	// slots * slot can overflow, compare through the division instead
	if slots > maximum.Nanoseconds()/slot.Nanoseconds() {
		return maximum
	}

	backoff := time.Duration(slots) * slot
	if backoff > maximum {
		backoff = maximum
	}
	return backoff
}

// SleepBackedOff sleeps for Backoff(attempt, slot, maximum).
func SleepBackedOff(attempt int64, slot time.Duration, maximum time.Duration) {
	time.Sleep(Backoff(attempt, slot, maximum))
}
