package stream

import (
	"math/rand/v2"
	"time"
)

// Greetings is the fixed set of messages a stream can deliver.
var Greetings = [...]string{
	"Hello there!",
	"Meow! How are you?",
	"Purrfect day, isn't it?",
	"Welcome to the cat chat!",
	"Feline fine today?",
	"Hope you're having a pawsome day!",
	"Cats rule, dogs drool!",
	"Time for some kitty love!",
	"Whiskers and purrs to you!",
	"Cat-tastic greetings!",
}

// RandomGreeting returns one of Greetings chosen uniformly at random.
func RandomGreeting() string {
	return Greetings[rand.IntN(len(Greetings))]
}

// IsGreeting reports whether msg belongs to Greetings.
func IsGreeting(msg string) bool {
	for _, g := range Greetings {
		if g == msg {
			return true
		}
	}
	return false
}

// DelayFunc yields the wait before the next event.
type DelayFunc func() time.Duration

// RandomDelay waits a uniformly random whole number of units in [lo, hi].
func RandomDelay(lo, hi int, unit time.Duration) DelayFunc {
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	span := hi - lo + 1
	return func() time.Duration {
		return time.Duration(lo+rand.IntN(span)) * unit
	}
}
