package core

import (
	"fmt"
	"strings"
)

// Historical data carries two shift-reference encodings: the legacy
// "Turno N" form (no date, predates per-day sequencing) and the
// canonical "{yyyyMMdd}-{N}" form. ShiftRef is the single
// normalization of both; nothing past the reconciler's ingestion
// boundary looks at the raw strings again.
const (
	RefLegacy      RefKind = "legacy"
	RefCanonical   RefKind = "canonical"
	RefUnparseable RefKind = "unparseable"
)

const legacyPrefix = "Turno "

type (
	RefKind string

	ShiftRef struct {
		Kind       RefKind
		Sequence   int    // legacy and canonical
		DateSuffix string // canonical only, yyyyMMdd
		Raw        string
	}
)

// CanonicalShiftID builds the canonical shift identifier for a day and
// sequence number, e.g. "20250115-1".
func CanonicalShiftID(d Date, sequence int) string {
	return fmt.Sprintf("%s-%d", d.IDSuffix(), sequence)
}

// ParseShiftRef classifies a raw shift-reference string. Exactly one
// of the two encodings matches, or the result is Unparseable; the
// caller keeps unparseable fares in a best-effort bucket rather than
// dropping them.
func ParseShiftRef(raw string) ShiftRef {
	if seq, ok := parseLegacyRef(raw); ok {
		return ShiftRef{Kind: RefLegacy, Sequence: seq, Raw: raw}
	}
	if suffix, seq, ok := parseCanonicalRef(raw); ok {
		return ShiftRef{Kind: RefCanonical, Sequence: seq, DateSuffix: suffix, Raw: raw}
	}
	return ShiftRef{Kind: RefUnparseable, Raw: raw}
}

// CanonicalID resolves the reference to a canonical shift id. Legacy
// references carry no date of their own, so the owning fare's date
// supplies it (the shift's date cannot: the shift row may be missing).
func (r ShiftRef) CanonicalID(fareDate Date) (string, bool) {
	switch r.Kind {
	case RefCanonical:
		return r.Raw, true
	case RefLegacy:
		return CanonicalShiftID(fareDate, r.Sequence), true
	default:
		return "", false
	}
}

// parseLegacyRef matches "Turno {N}" and returns N.
func parseLegacyRef(raw string) (int, bool) {
	rest, found := strings.CutPrefix(raw, legacyPrefix)
	if !found {
		return 0, false
	}
	return parseDigits(strings.TrimSpace(rest))
}

// parseCanonicalRef splits on the last "-" and requires two
// integer-bearing parts: a date suffix and a sequence number. The
// suffix is normally 8 digits but shorter historical variants still
// resolve; only a part with non-digit characters is rejected.
func parseCanonicalRef(raw string) (string, int, bool) {
	sep := strings.LastIndexByte(raw, '-')
	if sep <= 0 || sep == len(raw)-1 {
		return "", 0, false
	}
	suffix, seqPart := raw[:sep], raw[sep+1:]
	if _, ok := parseDigits(suffix); !ok {
		return "", 0, false
	}
	seq, ok := parseDigits(seqPart)
	if !ok {
		return "", 0, false
	}
	return suffix, seq, true
}
