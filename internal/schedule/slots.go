package schedule

import "sort"

// SlotStepMinutes is the fixed cadence of offered start times. It is
// deliberately independent of the service duration: a 90-minute service in
// a 09:00-18:00 window still offers 09:00, 09:30, 10:00, ... so the slot
// grid stays dense. Overlaps between adjacent offers are resolved later
// against existing bookings, not here.
const SlotStepMinutes = 30

// GenerateSlots produces the candidate start times for one day. A slot is
// emitted only if the full service duration fits before the window closes.
// Candidates from all intervals are merged, deduplicated and sorted.
//
// Closed day, empty intervals, inverted intervals and durations longer than
// every window all yield the empty list.
func GenerateSlots(day DayAvailability, durationMin int) []string {
	if !day.Enabled || durationMin <= 0 {
		return nil
	}

	seen := map[int]struct{}{}

	for _, iv := range day.TimeSlots {
		start := minutes(iv.Start)
		end := minutes(iv.End)

		if start < 0 || end <= start {
			continue
		}

		for cur := start; cur+durationMin <= end; cur += SlotStepMinutes {
			seen[cur] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	slots := make([]string, 0, len(seen))
	for m := range seen {
		slots = append(slots, MinutesToTime(m))
	}

	sort.Strings(slots)

	return slots
}
