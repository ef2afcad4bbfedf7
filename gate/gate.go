// Package gate decides whether the scrape window is currently open.
//
// The target page is only worth fetching during library opening hours, and
// every fetch spends metered quota on the proxy API, so the collector checks
// the wall clock before doing anything else.
package gate

import (
	"fmt"
	"time"
)

// Location is the fixed operating timezone. Day and hour are always computed
// here regardless of where the process runs; hosts routinely end up in UTC
// and would otherwise shift the window by nine hours.
var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Seoul")
	if err != nil {
		panic(err)
	}
}

// Now returns the current time rendered in the operating timezone.
func Now() time.Time {
	return time.Now().In(Location)
}

// WindowError reports a rejected (weekday, hour) pair. It is an expected,
// frequent outcome outside opening hours, not a fault.
type WindowError struct {
	Weekday time.Weekday
	Hour    int
}

func (e WindowError) Error() string {
	return fmt.Sprintf("outside operating window: %s %02d:00", e.Weekday, e.Hour)
}

// Gate evaluates the operating-hours policy. The zero value is not usable;
// construct with New.
type Gate struct {
	now func() time.Time
}

// New returns a gate reading the real clock.
func New() *Gate {
	return &Gate{now: Now}
}

// NewWithClock returns a gate with an injected clock, for tests.
func NewWithClock(now func() time.Time) *Gate {
	return &Gate{now: now}
}

// Open returns nil when the current KST time is inside the operating window,
// or a WindowError naming the rejected weekday and hour.
//
// Policy: Mon-Fri hours 09-21 inclusive, Sat-Sun hours 09-17 inclusive.
// The last admitted buckets are 21:xx and 17:xx respectively.
func (g *Gate) Open() error {
	return Check(g.now())
}

// Check applies the window policy to an explicit instant. The instant is
// converted to the operating timezone first, whatever zone it arrives in.
func Check(now time.Time) error {
	now = now.In(Location)
	day := now.Weekday()
	hour := now.Hour()

	last := 21
	if day == time.Saturday || day == time.Sunday {
		last = 17
	}
	if hour >= 9 && hour <= last {
		return nil
	}
	return WindowError{Weekday: day, Hour: hour}
}
