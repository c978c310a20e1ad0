package openlibrary

import (
	"testing"
	"time"
)

func TestParsePublishDate(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want *time.Time
	}{
		{"empty", "", nil},
		{"whitespace", "   ", nil},
		{"iso", "1974-05-21", datePtr(1974, time.May, 21)},
		{"bare year", "1974", datePtr(1974, time.January, 1)},
		{"month year", "May 1974", datePtr(1974, time.May, 1)},
		{"full with comma", "May 21, 1974", datePtr(1974, time.May, 21)},
		{"full without comma", "May 21 1974", datePtr(1974, time.May, 21)},
		{"lowercase month", "october 1, 1988", datePtr(1988, time.October, 1)},
		{"uppercase month", "OCTOBER 1988", datePtr(1988, time.October, 1)},
		{"unknown month", "Smarch 1974", nil},
		{"day out of range", "May 41, 1974", nil},
		{"impossible calendar day", "February 30, 2005", nil},
		{"short month overflow", "April 31, 2001", nil},
		{"leap day", "February 29, 2004", datePtr(2004, time.February, 29)},
		{"non-leap february 29", "February 29, 2005", nil},
		{"two digit year", "May 74", nil},
		{"garbage", "circa 19th century", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParsePublishDate(tc.raw)
			switch {
			case tc.want == nil && got != nil:
				t.Fatalf("expected nil, got %v", got)
			case tc.want != nil && got == nil:
				t.Fatalf("expected %v, got nil", tc.want)
			case tc.want != nil && !got.Equal(*tc.want):
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func datePtr(year int, month time.Month, day int) *time.Time {
	ts := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &ts
}
