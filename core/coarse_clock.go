package core

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock returns the current time. Lines are stamped with it when they are
// written, not when they are formatted.
type Clock func() time.Time

// coarseResolution is below the millisecond precision of rendered
// timestamps, so a cached value never shows up as a visible skew.
const coarseResolution = 500 * time.Microsecond

var (
	coarseOnce sync.Once
	coarseNow  atomic.Pointer[time.Time]
)

// CoarseClock returns a Clock that reads a cached time instead of calling
// time.Now on every line. The refresh goroutine is started once and runs
// for the lifetime of the process.
func CoarseClock() Clock {
	coarseOnce.Do(func() {
		t := time.Now()
		coarseNow.Store(&t)
		go func() {
			ticker := time.NewTicker(coarseResolution)
			for range ticker.C {
				t := time.Now()
				coarseNow.Store(&t)
			}
		}()
	})
	return coarseTime
}

func coarseTime() time.Time {
	return *coarseNow.Load()
}
