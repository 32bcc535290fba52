package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Day is a day-of-week key as it appears in the schedule JSON.
type Day string

const (
	DaySunday    Day = "sunday"
	DayMonday    Day = "monday"
	DayTuesday   Day = "tuesday"
	DayWednesday Day = "wednesday"
	DayThursday  Day = "thursday"
	DayFriday    Day = "friday"
	DaySaturday  Day = "saturday"
)

// dayByIndex follows time.Weekday numbering: Sunday=0 .. Saturday=6.
var dayByIndex = [7]Day{
	DaySunday,
	DayMonday,
	DayTuesday,
	DayWednesday,
	DayThursday,
	DayFriday,
	DaySaturday,
}

// DayOfDate resolves a calendar date to its schedule key.
func DayOfDate(t time.Time) Day {
	return dayByIndex[int(t.Weekday())]
}

// DayAvailability is one day's configuration. Enabled=false and empty
// TimeSlots both mean "closed that day"; neither is an error.
type DayAvailability struct {
	Enabled   bool           `json:"enabled"`
	TimeSlots []TimeInterval `json:"timeSlots"`
}

// WeeklySchedule is the recurring availability of a service, keyed by day.
// Days absent from the map are closed.
type WeeklySchedule map[Day]DayAvailability

var ErrEmptySchedule = errors.New("schedule is empty")

// ParseWeekly decodes the JSON stored on a service record. An empty string
// means the service was never configured; that is an error here so callers
// can tell "never configured" from "configured but closed", but the public
// availability functions collapse it to "closed" (fail closed).
func ParseWeekly(raw string) (WeeklySchedule, error) {
	const op = "schedule.ParseWeekly"

	if raw == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptySchedule)
	}

	var ws WeeklySchedule
	if err := json.Unmarshal([]byte(raw), &ws); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ws, nil
}

// Validate rejects unknown day keys and intervals that do not parse or are
// inverted. Only the write boundary (service create/update) calls this;
// read paths stay lenient and fail closed instead.
func (ws WeeklySchedule) Validate() error {
	const op = "schedule.WeeklySchedule.Validate"

	known := map[Day]struct{}{}
	for _, d := range dayByIndex {
		known[d] = struct{}{}
	}

	for day, avail := range ws {
		if _, ok := known[day]; !ok {
			return fmt.Errorf("%s: unknown day %q", op, day)
		}

		for _, iv := range avail.TimeSlots {
			start, err := TimeToMinutes(iv.Start)
			if err != nil {
				return fmt.Errorf("%s: day %s: %w", op, day, err)
			}

			end, err := TimeToMinutes(iv.End)
			if err != nil {
				return fmt.Errorf("%s: day %s: %w", op, day, err)
			}

			if end <= start {
				return fmt.Errorf("%s: day %s: interval %s-%s is inverted", op, day, iv.Start, iv.End)
			}
		}
	}

	return nil
}

// Contains reports whether [startHHMM, endHHMM) on the given date lies
// entirely inside a single open interval of that day. No union credit:
// a candidate spanning two adjacent intervals is not available.
func (ws WeeklySchedule) Contains(date time.Time, startHHMM, endHHMM string) bool {
	day, ok := ws[DayOfDate(date)]
	if !ok || !day.Enabled || len(day.TimeSlots) == 0 {
		return false
	}

	start := minutes(startHHMM)
	end := minutes(endHHMM)

	for _, iv := range day.TimeSlots {
		if iv.Contains(start, end) {
			return true
		}
	}

	return false
}

// IsAvailableRaw answers the availability question straight from the
// serialized schedule. Any parse failure, including an empty string, means
// "not available" — corrupt config must never open bookings.
func IsAvailableRaw(raw string, date time.Time, startHHMM, endHHMM string) bool {
	ws, err := ParseWeekly(raw)
	if err != nil {
		return false
	}

	return ws.Contains(date, startHHMM, endHHMM)
}
