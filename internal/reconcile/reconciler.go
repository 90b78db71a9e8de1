// Package reconcile groups fares under their owning shifts, bridging
// the legacy "Turno N" and canonical "{yyyyMMdd}-{N}" reference
// encodings found in historical data.
package reconcile

import (
	"log/slog"
	"sort"
	"strconv"

	"taxidiario/internal/core"
)

// Bucket is one shift's fare group. Shift is nil for pseudo-buckets:
// fares whose reference matched no stored shift row are kept under
// their raw reference string rather than dropped.
type Bucket struct {
	ShiftID  string
	Shift    *core.Shift
	Sequence int
	Fares    []core.Fare
}

// GroupFares maps every input fare into exactly one bucket and emits a
// bucket for every input shift, even when its fare list is empty.
//
// Matching runs in two passes. Canonical references group directly by
// their literal string. Legacy references resolve their sequence
// number against the shifts loaded for the fare's own date (the
// legacy form predates per-day sequencing and carries no date); when
// a legacy and a canonical reference land on the same shift their
// fares merge into one bucket.
func GroupFares(shifts []core.Shift, fares []core.Fare) []Bucket {
	buckets := make(map[string]*Bucket, len(shifts))

	byID := make(map[string]*core.Shift, len(shifts))
	bySeq := make(map[string]*core.Shift, len(shifts)) // "{display date}|{sequence}"
	for i := range shifts {
		s := &shifts[i]
		byID[s.ID] = s
		bySeq[seqKey(s.Date, s.Sequence)] = s
		buckets[s.ID] = &Bucket{ShiftID: s.ID, Shift: s, Sequence: s.Sequence}
	}

	for _, fare := range fares {
		key, seq, shift := resolve(fare, byID, bySeq)
		b, ok := buckets[key]
		if !ok {
			b = &Bucket{ShiftID: key, Shift: shift, Sequence: seq}
			buckets[key] = b
		}
		b.Fares = append(b.Fares, fare)
	}

	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	// Store order is not guaranteed; sort for repeatable output.
	sort.Slice(out, func(i, j int) bool { return out[i].ShiftID < out[j].ShiftID })
	return out
}

// resolve picks the bucket key for one fare: the canonical shift id
// when the reference resolves to a known shift, the raw reference
// string otherwise.
func resolve(fare core.Fare, byID map[string]*core.Shift, bySeq map[string]*core.Shift) (string, int, *core.Shift) {
	ref := core.ParseShiftRef(fare.ShiftRef)

	switch ref.Kind {
	case core.RefLegacy:
		if s, ok := bySeq[seqKey(fare.Date, ref.Sequence)]; ok {
			return s.ID, s.Sequence, s
		}
		// No shift with that sequence on the fare's date: keep the
		// fare under the literal legacy string as its own bucket.
		return ref.Raw, ref.Sequence, nil

	case core.RefCanonical:
		if s, ok := byID[ref.Raw]; ok {
			return s.ID, s.Sequence, s
		}
		// Orphaned fare, shift deleted or never imported. The
		// sequence comes from the trailing digits of the reference.
		return ref.Raw, ref.Sequence, nil

	default:
		slog.Warn("Malformed shift reference on fare, using pseudo-bucket",
			"fare_id", fare.ID,
			"shift_ref", fare.ShiftRef,
			"date", fare.Date.Display())
		return ref.Raw, 0, nil
	}
}

func seqKey(d core.Date, sequence int) string {
	return d.Display() + "|" + strconv.Itoa(sequence)
}
