package core

import "testing"

func TestDateRoundTrip(t *testing.T) {
	d := NewDate(2025, 1, 15)
	if got := d.Display(); got != "15/01/2025" {
		t.Fatalf("display: expected 15/01/2025, got %s", got)
	}
	if got := d.IDSuffix(); got != "20250115" {
		t.Fatalf("id suffix: expected 20250115, got %s", got)
	}

	parsed, err := ParseDisplayDate("15/01/2025")
	if err != nil || !parsed.Equal(d) {
		t.Fatalf("parse display failed: %v", err)
	}
	parsed, err = ParseIDSuffix("20250115")
	if err != nil || !parsed.Equal(d) {
		t.Fatalf("parse id suffix failed: %v", err)
	}
}

func TestParseDisplayDateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "2025-01-15", "15/13/2025", "99/01/2025", "turno"} {
		if _, err := ParseDisplayDate(s); err == nil {
			t.Fatalf("%q: expected error", s)
		}
	}
}

func TestMonthBounds(t *testing.T) {
	cases := []struct {
		year, month int
		first, last string
	}{
		{2025, 1, "01/01/2025", "31/01/2025"},
		{2025, 2, "01/02/2025", "28/02/2025"},
		{2024, 2, "01/02/2024", "29/02/2024"}, // leap year
		{2025, 12, "01/12/2025", "31/12/2025"},
	}
	for _, tc := range cases {
		first, last := MonthBounds(tc.year, tc.month)
		if first.Display() != tc.first || last.Display() != tc.last {
			t.Fatalf("%d-%d: expected %s..%s, got %s..%s",
				tc.year, tc.month, tc.first, tc.last, first.Display(), last.Display())
		}
	}
}

func TestAddDays(t *testing.T) {
	d := NewDate(2025, 1, 31).AddDays(1)
	if d.Display() != "01/02/2025" {
		t.Fatalf("expected rollover to 01/02/2025, got %s", d.Display())
	}
}
