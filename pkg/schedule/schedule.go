package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jdziat/handlerwrap/pkg/core"
)

// Schedule computes the next firing strictly after from.
type Schedule interface {
	Next(from time.Time) time.Time
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// interval fires a fixed duration after the previous firing, without the
// whole-second rounding of cron's @every.
type interval time.Duration

// Every fires every d.
func Every(d time.Duration) Schedule {
	return interval(d)
}

func (i interval) Next(from time.Time) time.Time {
	return from.Add(time.Duration(i))
}

func (i interval) String() string {
	return "@every " + time.Duration(i).String()
}

// cronSchedule is a parsed cron schedule with the text it was built from.
type cronSchedule struct {
	text string
	cron cron.Schedule
}

func (s *cronSchedule) Next(from time.Time) time.Time {
	return s.cron.Next(from)
}

func (s *cronSchedule) String() string {
	return s.text
}

// Daily fires at hour:minute UTC every day. Out of range values panic.
func Daily(hour, minute int) Schedule {
	return utc(fmt.Sprintf("%d %d * * *", minute, hour))
}

// Weekly fires at hour:minute UTC on day each week. Out of range values
// panic.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return utc(fmt.Sprintf("%d %d * * %d", minute, hour, day))
}

func utc(expr string) Schedule {
	s := Cron("CRON_TZ=UTC " + expr)
	s.(*cronSchedule).text = expr + " UTC"
	return s
}

// ParseCron parses a five-field cron expression or a descriptor such as
// @hourly or @every 90s. A CRON_TZ= prefix selects the time zone.
func ParseCron(expr string) (Schedule, error) {
	c, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", core.ErrInvalidSchedule, expr, err)
	}
	return &cronSchedule{text: expr, cron: c}, nil
}

// Cron is ParseCron for expressions known to be valid. It panics otherwise.
func Cron(expr string) Schedule {
	s, err := ParseCron(expr)
	if err != nil {
		panic(err)
	}
	return s
}
