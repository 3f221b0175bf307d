package domain

import (
	"testing"
	"time"
)

var tokyo = mustLocation("Asia/Tokyo")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func TestRequestWindowEnd(t *testing.T) {
	delivered := time.Date(2025, time.March, 10, 14, 30, 0, 0, tokyo)

	end := RequestWindowEnd(delivered, tokyo)
	want := time.Date(2025, time.March, 17, 23, 59, 59, 0, tokyo)
	if !end.Equal(want) {
		t.Fatalf("RequestWindowEnd = %v, want %v", end, want)
	}
}

func TestWithinRequestWindowBoundary(t *testing.T) {
	delivered := time.Date(2025, time.March, 10, 9, 0, 0, 0, tokyo)
	lastSecond := time.Date(2025, time.March, 17, 23, 59, 59, 0, tokyo)

	if !WithinRequestWindow(delivered, lastSecond, tokyo) {
		t.Error("request at the final second of the window should be accepted")
	}
	if WithinRequestWindow(delivered, lastSecond.Add(time.Second), tokyo) {
		t.Error("request one second past the window should be rejected")
	}
}

func TestExtendedDeadline(t *testing.T) {
	cases := []struct {
		delivered time.Time
		want      time.Time
	}{
		// Mid-month delivery: last day of month+2.
		{
			time.Date(2025, time.January, 15, 10, 0, 0, 0, tokyo),
			time.Date(2025, time.March, 31, 23, 59, 59, 0, tokyo),
		},
		// February target month respects its length.
		{
			time.Date(2024, time.December, 5, 8, 0, 0, 0, tokyo),
			time.Date(2025, time.February, 28, 23, 59, 59, 0, tokyo),
		},
		// Leap year February.
		{
			time.Date(2023, time.December, 31, 23, 0, 0, 0, tokyo),
			time.Date(2024, time.February, 29, 23, 59, 59, 0, tokyo),
		},
		// Year rollover.
		{
			time.Date(2025, time.November, 20, 12, 0, 0, 0, tokyo),
			time.Date(2026, time.January, 31, 23, 59, 59, 0, tokyo),
		},
		// Delivery on the last day of a month.
		{
			time.Date(2025, time.January, 31, 6, 0, 0, 0, tokyo),
			time.Date(2025, time.March, 31, 23, 59, 59, 0, tokyo),
		},
	}

	for _, tc := range cases {
		got := ExtendedDeadline(tc.delivered, tokyo)
		if !got.Equal(tc.want) {
			t.Errorf("ExtendedDeadline(%v) = %v, want %v", tc.delivered, got, tc.want)
		}
	}
}

func TestExtendedDeadlineIndependentOfSubmissionTime(t *testing.T) {
	delivered := time.Date(2025, time.April, 3, 11, 0, 0, 0, tokyo)
	want := time.Date(2025, time.June, 30, 23, 59, 59, 0, tokyo)

	// The formula only reads deliveredAt; calling it at different "times"
	// is trivially identical, so instead assert against a delivery stored
	// in a different zone, which must still resolve to local month math.
	utcDelivered := delivered.UTC()
	if got := ExtendedDeadline(utcDelivered, tokyo); !got.Equal(want) {
		t.Errorf("ExtendedDeadline over UTC-stored delivery = %v, want %v", got, want)
	}
}
