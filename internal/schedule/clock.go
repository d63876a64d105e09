package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrBadClock is returned for times that are not HH:MM[:SS] with hours 0-23.
var ErrBadClock = errors.New("time must be HH:MM or HH:MM:SS")

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock parses "HH:MM" or "HH:MM:SS". Single-digit hours are accepted.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Clock{}, fmt.Errorf("%w: %q", ErrBadClock, s)
	}

	limits := []int{23, 59, 59}
	vals := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return Clock{}, fmt.Errorf("%w: %q", ErrBadClock, s)
		}
		vals[i] = n
	}
	return Clock{Hour: vals[0], Minute: vals[1], Second: vals[2]}, nil
}

// On combines the clock with the calendar date of day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, c.Second, 0, day.Location())
}

// Before reports whether c is strictly earlier in the day than o.
func (c Clock) Before(o Clock) bool {
	return c.seconds() < o.seconds()
}

func (c Clock) seconds() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

// String renders HH:MM:SS.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}
