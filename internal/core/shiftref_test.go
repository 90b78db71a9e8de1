package core

import "testing"

func TestParseShiftRef(t *testing.T) {
	cases := []struct {
		raw    string
		kind   RefKind
		seq    int
		suffix string
	}{
		{"Turno 1", RefLegacy, 1, ""},
		{"Turno 12", RefLegacy, 12, ""},
		{"20250115-1", RefCanonical, 1, "20250115"},
		{"20231120-3", RefCanonical, 3, "20231120"},
		{"Turno", RefUnparseable, 0, ""},
		{"Turno x", RefUnparseable, 0, ""},
		{"2025-1", RefCanonical, 1, "2025"}, // short historical suffix still resolves
		{"20250115-", RefUnparseable, 0, ""},   // missing sequence
		{"20250115-1a", RefUnparseable, 0, ""}, // non-numeric sequence
		{"2025x-1", RefUnparseable, 0, ""},     // non-digit date part
		{"garbage", RefUnparseable, 0, ""},
		{"", RefUnparseable, 0, ""},
	}
	for _, tc := range cases {
		ref := ParseShiftRef(tc.raw)
		if ref.Kind != tc.kind || ref.Sequence != tc.seq || ref.DateSuffix != tc.suffix {
			t.Fatalf("%q: expected (%s, %d, %q), got (%s, %d, %q)",
				tc.raw, tc.kind, tc.seq, tc.suffix, ref.Kind, ref.Sequence, ref.DateSuffix)
		}
		if ref.Raw != tc.raw {
			t.Fatalf("%q: raw not preserved", tc.raw)
		}
	}
}

func TestCanonicalShiftID(t *testing.T) {
	if got := CanonicalShiftID(NewDate(2025, 1, 15), 1); got != "20250115-1" {
		t.Fatalf("expected 20250115-1, got %s", got)
	}
}

// A legacy reference carries no date of its own; resolution uses the
// fare's date, not the shift's.
func TestShiftRefCanonicalID(t *testing.T) {
	fareDate := NewDate(2023, 11, 20)

	legacy := ParseShiftRef("Turno 1")
	id, ok := legacy.CanonicalID(fareDate)
	if !ok || id != "20231120-1" {
		t.Fatalf("legacy: expected 20231120-1, got %q ok=%v", id, ok)
	}

	canonical := ParseShiftRef("20250115-2")
	id, ok = canonical.CanonicalID(fareDate)
	if !ok || id != "20250115-2" {
		t.Fatalf("canonical: expected literal id, got %q ok=%v", id, ok)
	}

	if _, ok := ParseShiftRef("garbage").CanonicalID(fareDate); ok {
		t.Fatalf("unparseable reference must not resolve")
	}
}
