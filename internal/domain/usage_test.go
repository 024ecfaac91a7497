package domain

import "testing"

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want Period
		ok   bool
	}{
		{"", PeriodMonth, true},
		{"day", PeriodDay, true},
		{"month", PeriodMonth, true},
		{"total", PeriodTotal, true},
		{"week", "", false},
		{"DAY", "", false},
	}
	for _, tc := range tests {
		got, ok := ParsePeriod(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParsePeriod(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
