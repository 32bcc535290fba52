package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeInterval is one contiguous open window within a day, e.g. a morning
// session {Start: "09:00", End: "12:30"}. Start must be before End; an
// inverted interval is not an error, it just produces no slots.
type TimeInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimeToMinutes parses a 24-hour "HH:MM" string into minutes since midnight.
// Hours must be 00..23 and minutes 00..59.
func TimeToMinutes(s string) (int, error) {
	const op = "schedule.TimeToMinutes"

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%s: invalid time %q", op, s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid time %q: %w", op, s, err)
	}

	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid time %q: %w", op, s, err)
	}

	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%s: time %q out of range", op, s)
	}

	return h*60 + m, nil
}

// MinutesToTime is the inverse of TimeToMinutes, zero-padded. It does not
// wrap modulo 24h: 1530 comes back as "25:30".
func MinutesToTime(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// minutes is the lenient variant used on hot paths: any malformed input
// yields -1, which fails every containment comparison, so the slot is
// simply never offered.
func minutes(s string) int {
	m, err := TimeToMinutes(s)
	if err != nil {
		return -1
	}

	return m
}

// Contains reports whether [startMin, endMin) lies entirely inside the
// interval. Strict containment: a candidate that only partially overlaps
// the window is rejected, not truncated.
func (iv TimeInterval) Contains(startMin, endMin int) bool {
	ivStart := minutes(iv.Start)
	ivEnd := minutes(iv.End)

	if ivStart < 0 || ivEnd < 0 || startMin < 0 || endMin < 0 {
		return false
	}

	return ivStart <= startMin && endMin <= ivEnd
}
