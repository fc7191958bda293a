package utils

import (
	"testing"
	"time"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+15551234567", "+15551234567", false},
		{" +1 (555) 123-4567 ", "+15551234567", false},
		{"+44 20.7946.0958", "+442079460958", false},
		{"15551234567", "", true},  // no + prefix
		{"+1555", "", true},        // too short
		{"+1555123456789012", "", true}, // too long
		{"+1555ABC4567", "", true}, // letters
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizePhone(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMonthWindow(t *testing.T) {
	now := time.Date(2026, time.February, 14, 23, 59, 59, 0, time.FixedZone("UTC+5", 5*3600))

	start, end := MonthWindow(now)
	if !start.Equal(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	if !end.Equal(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", end)
	}

	// December rolls into the next year.
	start, end = MonthWindow(time.Date(2026, time.December, 31, 12, 0, 0, 0, time.UTC))
	if end.Year() != 2027 || end.Month() != time.January {
		t.Fatalf("end = %v", end)
	}
	if start.Month() != time.December {
		t.Fatalf("start = %v", start)
	}
}
