package schedule

import "testing"

func TestTimeToMinutes(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"23:59", 1439, false},
		{"9:00", 540, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"25:99", 0, true},
		{"0930", 0, true},
		{"", 0, true},
		{"ab:cd", 0, true},
	}

	for _, tc := range cases {
		got, err := TimeToMinutes(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("TimeToMinutes(%q): want error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("TimeToMinutes(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("TimeToMinutes(%q): want %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestMinutesToTime(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "00:00"},
		{540, "09:00"},
		{605, "10:05"},
		{1439, "23:59"},
	}

	for _, tc := range cases {
		if got := MinutesToTime(tc.in); got != tc.want {
			t.Errorf("MinutesToTime(%d): want %q, got %q", tc.in, tc.want, got)
		}
	}
}

// MinutesToTime does not wrap past midnight; values >= 1440 overflow the
// hour field. Callers are expected not to feed them, this test pins the
// shape down so nobody relies on wrapping by accident.
func TestMinutesToTimeNoWrap(t *testing.T) {
	if got := MinutesToTime(1530); got != "25:30" {
		t.Errorf("MinutesToTime(1530): want %q, got %q", "25:30", got)
	}
}

func TestIntervalContains(t *testing.T) {
	iv := TimeInterval{Start: "09:00", End: "12:00"}

	cases := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"exact window", 540, 720, true},
		{"inside", 600, 660, true},
		{"starts one minute early", 539, 660, false},
		{"ends one minute late", 600, 721, false},
		{"entirely before", 480, 540, false},
		{"entirely outside", 420, 480, false},
	}

	for _, tc := range cases {
		if got := iv.Contains(tc.start, tc.end); got != tc.want {
			t.Errorf("%s: Contains(%d, %d): want %v, got %v", tc.name, tc.start, tc.end, tc.want, got)
		}
	}
}

func TestIntervalContainsMalformed(t *testing.T) {
	iv := TimeInterval{Start: "banana", End: "12:00"}

	if iv.Contains(600, 660) {
		t.Error("malformed interval must never contain anything")
	}
}
