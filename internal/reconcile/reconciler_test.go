package reconcile

import (
	"testing"

	"taxidiario/internal/core"
)

func shift(id string, d core.Date, seq int) core.Shift {
	return core.Shift{ID: id, Date: d, Sequence: seq, StartTime: "08:00"}
}

func fare(id int64, d core.Date, ref string, cents int64) core.Fare {
	return core.Fare{
		ID:       id,
		Date:     d,
		Metered:  core.Money{Cents: cents},
		Actual:   core.Money{Cents: cents},
		Payment:  core.PaymentCash,
		ShiftRef: ref,
	}
}

func findBucket(t *testing.T, buckets []Bucket, id string) Bucket {
	t.Helper()
	for _, b := range buckets {
		if b.ShiftID == id {
			return b
		}
	}
	t.Fatalf("bucket %q not found", id)
	return Bucket{}
}

func TestGroupFaresCanonical(t *testing.T) {
	d := core.NewDate(2025, 1, 15)
	shifts := []core.Shift{shift("20250115-1", d, 1)}
	fares := []core.Fare{
		fare(1, d, "20250115-1", 1250),
		fare(2, d, "20250115-1", 1500),
	}

	buckets := GroupFares(shifts, fares)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	b := buckets[0]
	if b.ShiftID != "20250115-1" || b.Shift == nil || len(b.Fares) != 2 {
		t.Fatalf("unexpected bucket: %+v", b)
	}
}

// A fare referencing "Turno 1" on a date where a canonical shift with
// sequence 1 exists lands in the canonical bucket, not a separate
// "Turno 1" bucket.
func TestGroupFaresLegacyResolvesToCanonical(t *testing.T) {
	d := core.NewDate(2023, 11, 20)
	shifts := []core.Shift{shift("20231120-1", d, 1)}
	fares := []core.Fare{fare(1, d, "Turno 1", 900)}

	buckets := GroupFares(shifts, fares)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d: %+v", len(buckets), buckets)
	}
	if buckets[0].ShiftID != "20231120-1" || len(buckets[0].Fares) != 1 {
		t.Fatalf("legacy fare not merged into canonical bucket: %+v", buckets[0])
	}
}

// Legacy and canonical references to the same shift merge into one
// bucket with no duplication and no loss.
func TestGroupFaresMixedReferencesMerge(t *testing.T) {
	d := core.NewDate(2023, 11, 20)
	shifts := []core.Shift{shift("20231120-1", d, 1)}
	fares := []core.Fare{
		fare(1, d, "Turno 1", 900),
		fare(2, d, "20231120-1", 1100),
	}

	buckets := GroupFares(shifts, fares)
	if len(buckets) != 1 {
		t.Fatalf("expected single merged bucket, got %d", len(buckets))
	}
	if len(buckets[0].Fares) != 2 {
		t.Fatalf("expected 2 fares in merged bucket, got %d", len(buckets[0].Fares))
	}
}

// An orphaned canonical reference keeps its fares in a pseudo-bucket
// with the sequence synthesized from the trailing digits.
func TestGroupFaresOrphanedCanonical(t *testing.T) {
	d := core.NewDate(2023, 5, 1)
	fares := []core.Fare{fare(1, d, "20230501-9", 2200)}

	buckets := GroupFares(nil, fares)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 pseudo-bucket, got %d", len(buckets))
	}
	b := buckets[0]
	if b.ShiftID != "20230501-9" || b.Shift != nil || b.Sequence != 9 || len(b.Fares) != 1 {
		t.Fatalf("unexpected pseudo-bucket: %+v", b)
	}
}

// A legacy reference with no matching shift on its date falls back to
// the literal legacy string as its own bucket.
func TestGroupFaresLegacyWithoutShift(t *testing.T) {
	d := core.NewDate(2023, 11, 20)
	shifts := []core.Shift{shift("20231120-2", d, 2)} // sequence 2, not 1
	fares := []core.Fare{fare(1, d, "Turno 1", 900)}

	buckets := GroupFares(shifts, fares)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	legacy := findBucket(t, buckets, "Turno 1")
	if legacy.Shift != nil || legacy.Sequence != 1 || len(legacy.Fares) != 1 {
		t.Fatalf("unexpected legacy bucket: %+v", legacy)
	}
	empty := findBucket(t, buckets, "20231120-2")
	if len(empty.Fares) != 0 {
		t.Fatalf("shift without fares must still appear, got %+v", empty)
	}
}

func TestGroupFaresMalformedReference(t *testing.T) {
	d := core.NewDate(2025, 1, 15)
	fares := []core.Fare{fare(1, d, "???", 500)}

	buckets := GroupFares(nil, fares)
	if len(buckets) != 1 || buckets[0].ShiftID != "???" || len(buckets[0].Fares) != 1 {
		t.Fatalf("malformed reference must not drop the fare: %+v", buckets)
	}
}

// No fare is lost or duplicated across buckets, and every shift
// appears as a bucket key.
func TestGroupFaresCompleteness(t *testing.T) {
	d1 := core.NewDate(2025, 2, 10)
	d2 := core.NewDate(2025, 2, 11)
	shifts := []core.Shift{
		shift("20250210-1", d1, 1),
		shift("20250210-2", d1, 2),
		shift("20250211-1", d2, 1),
	}
	fares := []core.Fare{
		fare(1, d1, "20250210-1", 1000),
		fare(2, d1, "Turno 2", 1100),
		fare(3, d1, "Turno 7", 1200),     // no such sequence that day
		fare(4, d2, "20250211-1", 1300),
		fare(5, d2, "20990101-4", 1400),  // orphan
		fare(6, d2, "basura", 1500),      // malformed
	}

	buckets := GroupFares(shifts, fares)

	total := 0
	seen := make(map[int64]bool)
	for _, b := range buckets {
		total += len(b.Fares)
		for _, f := range b.Fares {
			if seen[f.ID] {
				t.Fatalf("fare %d appears in more than one bucket", f.ID)
			}
			seen[f.ID] = true
		}
	}
	if total != len(fares) {
		t.Fatalf("expected %d fares across buckets, got %d", len(fares), total)
	}
	for _, s := range shifts {
		findBucket(t, buckets, s.ID)
	}
}

func TestGroupFaresDeterministicOrder(t *testing.T) {
	d := core.NewDate(2025, 3, 1)
	shifts := []core.Shift{
		shift("20250301-2", d, 2),
		shift("20250301-1", d, 1),
	}
	first := GroupFares(shifts, nil)
	second := GroupFares(shifts, nil)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 buckets in both runs")
	}
	for i := range first {
		if first[i].ShiftID != second[i].ShiftID {
			t.Fatalf("bucket order differs between runs")
		}
	}
	if first[0].ShiftID != "20250301-1" {
		t.Fatalf("expected ascending id order, got %s first", first[0].ShiftID)
	}
}
