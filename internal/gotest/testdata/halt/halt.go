package halt

import "time"

// Stall sleeps for d.
func Stall(d time.Duration) {
	time.Sleep(d)
}
