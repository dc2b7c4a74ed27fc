package entity

import "testing"

func TestTimesKey(t *testing.T) {
	tests := []struct {
		name  string
		times []string
		want  string
	}{
		{name: "empty", times: nil, want: ""},
		{name: "single", times: []string{"09:00"}, want: "09:00"},
		{name: "sorted", times: []string{"10:30", "09:00", "10:00"}, want: "09:00,10:00,10:30"},
		{name: "deduplicated", times: []string{"09:00", "09:00", "10:00"}, want: "09:00,10:00"},
		{name: "trimmed and blanks dropped", times: []string{" 09:00 ", "", "10:00"}, want: "09:00,10:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TimesKey(tc.times); got != tc.want {
				t.Fatalf("TimesKey(%v) = %q, want %q", tc.times, got, tc.want)
			}
		})
	}
}

func TestTimesKeyOrderInsensitive(t *testing.T) {
	a := TimesKey([]string{"09:00", "10:00", "11:00"})
	b := TimesKey([]string{"11:00", "09:00", "10:00"})
	if a != b {
		t.Fatalf("same set must produce the same key: %q vs %q", a, b)
	}
}
