package schedule

import (
	"testing"
	"time"
)

const mondaySchedule = `{
	"monday": {"enabled": true, "timeSlots": [{"start": "09:00", "end": "12:00"}]},
	"tuesday": {"enabled": false, "timeSlots": []}
}`

// 2025-08-18 is a Monday, 2025-08-19 a Tuesday.
var (
	aMonday  = time.Date(2025, 8, 18, 0, 0, 0, 0, time.Local)
	aTuesday = time.Date(2025, 8, 19, 0, 0, 0, 0, time.Local)
	aSunday  = time.Date(2025, 8, 17, 0, 0, 0, 0, time.Local)
)

func TestDayOfDate(t *testing.T) {
	cases := []struct {
		date time.Time
		want Day
	}{
		{aSunday, DaySunday},
		{aMonday, DayMonday},
		{aTuesday, DayTuesday},
		{time.Date(2025, 8, 23, 0, 0, 0, 0, time.Local), DaySaturday},
	}

	for _, tc := range cases {
		if got := DayOfDate(tc.date); got != tc.want {
			t.Errorf("DayOfDate(%s): want %s, got %s", tc.date.Format("2006-01-02"), tc.want, got)
		}
	}
}

func TestParseWeekly(t *testing.T) {
	ws, err := ParseWeekly(mondaySchedule)
	if err != nil {
		t.Fatalf("ParseWeekly: %v", err)
	}

	mon, ok := ws[DayMonday]
	if !ok || !mon.Enabled || len(mon.TimeSlots) != 1 {
		t.Fatalf("unexpected monday config: %+v", mon)
	}
	if mon.TimeSlots[0].Start != "09:00" || mon.TimeSlots[0].End != "12:00" {
		t.Errorf("unexpected interval: %+v", mon.TimeSlots[0])
	}
}

func TestParseWeeklyRejectsBrokenConfig(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"monday": 5}`} {
		if _, err := ParseWeekly(raw); err == nil {
			t.Errorf("ParseWeekly(%q): want error", raw)
		}
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		ws      WeeklySchedule
		wantErr bool
	}{
		{
			"valid",
			WeeklySchedule{DayMonday: {Enabled: true, TimeSlots: []TimeInterval{{Start: "09:00", End: "12:00"}}}},
			false,
		},
		{
			"closed day is legitimate",
			WeeklySchedule{DayTuesday: {Enabled: false}},
			false,
		},
		{
			"unknown day key",
			WeeklySchedule{"funday": {Enabled: true}},
			true,
		},
		{
			"inverted interval",
			WeeklySchedule{DayMonday: {Enabled: true, TimeSlots: []TimeInterval{{Start: "12:00", End: "09:00"}}}},
			true,
		},
		{
			"malformed time",
			WeeklySchedule{DayMonday: {Enabled: true, TimeSlots: []TimeInterval{{Start: "25:99", End: "26:00"}}}},
			true,
		},
	}

	for _, tc := range cases {
		err := tc.ws.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: want error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestContains(t *testing.T) {
	ws, err := ParseWeekly(mondaySchedule)
	if err != nil {
		t.Fatalf("ParseWeekly: %v", err)
	}

	cases := []struct {
		name       string
		date       time.Time
		start, end string
		want       bool
	}{
		{"inside window", aMonday, "10:00", "11:00", true},
		{"exact window", aMonday, "09:00", "12:00", true},
		{"exceeds window", aMonday, "11:30", "12:30", false},
		{"starts before window", aMonday, "08:30", "09:30", false},
		{"one minute over", aMonday, "11:01", "12:01", false},
		{"disabled day", aTuesday, "10:00", "11:00", false},
		{"unconfigured day", aSunday, "10:00", "11:00", false},
	}

	for _, tc := range cases {
		if got := ws.Contains(tc.date, tc.start, tc.end); got != tc.want {
			t.Errorf("%s: want %v, got %v", tc.name, tc.want, got)
		}
	}
}

// No union credit: a candidate spanning two adjacent intervals must be
// rejected even though every minute of it is open.
func TestContainsNoUnionAcrossIntervals(t *testing.T) {
	ws := WeeklySchedule{
		DayMonday: {Enabled: true, TimeSlots: []TimeInterval{
			{Start: "09:00", End: "10:00"},
			{Start: "10:00", End: "11:00"},
		}},
	}

	if ws.Contains(aMonday, "09:30", "10:30") {
		t.Error("candidate spanning two intervals must not be available")
	}
	if !ws.Contains(aMonday, "09:00", "10:00") {
		t.Error("candidate filling one interval must be available")
	}
}

func TestIsAvailableRawFailsClosed(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"monday": []}`} {
		if IsAvailableRaw(raw, aMonday, "10:00", "11:00") {
			t.Errorf("IsAvailableRaw(%q) must fail closed", raw)
		}
	}

	if !IsAvailableRaw(mondaySchedule, aMonday, "10:00", "11:00") {
		t.Error("valid schedule and contained candidate must be available")
	}
}
