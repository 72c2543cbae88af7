package app

import "time"

// Clock isolates wall-clock reads so tests can inject fixed time instead
// of depending on real elapsed time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return realClock{} }
