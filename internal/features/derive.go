package features

import (
	"fmt"
	"time"

	"github.com/jengzang/flight-delay-backend-go/internal/models"
)

// DelayThresholdMinutes is the minute difference above which a flight counts as delayed
const DelayThresholdMinutes = 15.0

// Period is the time-of-day bucket of a scheduled departure
type Period string

// Period constants. PeriodNone is returned for instants on or between window bounds.
const (
	PeriodNone      Period = ""
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodNight     Period = "night"
)

// Derived holds the per-record attributes computed from the two timestamps
type Derived struct {
	PeriodDay  Period  `json:"period_day"`
	HighSeason bool    `json:"high_season"`
	MinDiff    float64 `json:"min_diff"`
	Delay      int     `json:"delay"`
}

func clock(h, m, s int) int {
	return h*3600 + m*60 + s
}

var (
	morningMin   = clock(5, 0, 0)
	morningMax   = clock(11, 59, 0)
	afternoonMin = clock(12, 0, 0)
	afternoonMax = clock(18, 59, 0)
	eveningMin   = clock(19, 0, 0)
	eveningMax   = clock(23, 59, 0)
	nightMin     = clock(0, 0, 0)
	nightMax     = clock(4, 59, 0)
)

// PeriodOfDay classifies the local time-of-day of t. Windows are open on
// both ends, so 12:00:00 or 04:59:30 fall in no period.
func PeriodOfDay(t time.Time) Period {
	c := clock(t.Hour(), t.Minute(), t.Second())

	switch {
	case c > morningMin && c < morningMax:
		return PeriodMorning
	case c > afternoonMin && c < afternoonMax:
		return PeriodAfternoon
	case (c > eveningMin && c < eveningMax) || (c > nightMin && c < nightMax):
		return PeriodNight
	default:
		return PeriodNone
	}
}

type dayRange struct {
	fromMonth time.Month
	fromDay   int
	toMonth   time.Month
	toDay     int
}

var highSeasonRanges = []dayRange{
	{time.December, 15, time.December, 31},
	{time.January, 1, time.March, 3},
	{time.July, 15, time.July, 31},
	{time.September, 11, time.September, 30},
}

// IsHighSeason reports whether t falls in one of the high-season ranges.
// Ranges are built at midnight in t's own year and compared inclusively,
// so the last day of a range only matches at exactly 00:00:00.
func IsHighSeason(t time.Time) bool {
	year := t.Year()
	loc := t.Location()

	for _, r := range highSeasonRanges {
		from := time.Date(year, r.fromMonth, r.fromDay, 0, 0, 0, 0, loc)
		to := time.Date(year, r.toMonth, r.toDay, 0, 0, 0, 0, loc)
		if !t.Before(from) && !t.After(to) {
			return true
		}
	}
	return false
}

// MinuteDiff returns actual minus scheduled in minutes
func MinuteDiff(scheduled, actual time.Time) float64 {
	return actual.Sub(scheduled).Minutes()
}

// DelayLabel returns 1 when minDiff exceeds DelayThresholdMinutes
func DelayLabel(minDiff float64) int {
	if minDiff > DelayThresholdMinutes {
		return 1
	}
	return 0
}

// ParseTimestamp parses a Fecha-I / Fecha-O value
func ParseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(models.TimestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t, nil
}

// Derive computes the time-derived attributes of a flight with both timestamps set
func Derive(f models.Flight) (Derived, error) {
	scheduled, err := ParseTimestamp(f.ScheduledAt)
	if err != nil {
		return Derived{}, err
	}
	actual, err := ParseTimestamp(f.ActualAt)
	if err != nil {
		return Derived{}, err
	}

	diff := MinuteDiff(scheduled, actual)
	return Derived{
		PeriodDay:  PeriodOfDay(scheduled),
		HighSeason: IsHighSeason(scheduled),
		MinDiff:    diff,
		Delay:      DelayLabel(diff),
	}, nil
}
