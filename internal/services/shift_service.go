package services

import (
	"context"
	"fmt"
	"log/slog"

	"taxidiario/internal/core"
)

// ShiftService owns the shift lifecycle. The single-active-shift
// invariant is enforced here, at open time; reads never re-validate it.
type ShiftService struct {
	store Store
}

func NewShiftService(store Store) *ShiftService {
	return &ShiftService{store: store}
}

// OpenShift starts a new working session. Rejected when another shift
// is still active anywhere in the system.
func (s *ShiftService) OpenShift(ctx context.Context, day core.Date, startTime string, odometerStart int64) (*core.Shift, error) {
	active, err := s.store.ActiveShift(ctx)
	if err != nil {
		return nil, fmt.Errorf("check active shift: %w", err)
	}
	if active != nil {
		return nil, core.ErrActiveShiftExists
	}

	sequence, err := s.store.NextSequence(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("next sequence: %w", err)
	}

	shift := core.Shift{
		ID:            core.CanonicalShiftID(day, sequence),
		Date:          day,
		StartTime:     startTime,
		EndTime:       "",
		OdometerStart: odometerStart,
		OdometerEnd:   0,
		Sequence:      sequence,
		Active:        true,
	}
	if err := shift.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.InsertShift(ctx, shift); err != nil {
		return nil, fmt.Errorf("save shift: %w", err)
	}

	slog.InfoContext(ctx, "Shift opened",
		"id", shift.ID,
		"date", day.Display(),
		"odometer_start", odometerStart)
	return &shift, nil
}

// CloseShift ends a session. The odometer floor is enforced here, at
// close time, never retroactively.
func (s *ShiftService) CloseShift(ctx context.Context, id, endTime string, odometerEnd int64) (*core.Shift, error) {
	shift, err := s.store.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.Closed() {
		return nil, core.ErrShiftClosed
	}
	if odometerEnd < shift.OdometerStart {
		return nil, core.ErrOdometerRegressed
	}

	shift.EndTime = endTime
	shift.OdometerEnd = odometerEnd
	shift.Active = false

	if err := s.store.UpdateShift(ctx, *shift); err != nil {
		return nil, fmt.Errorf("save closed shift: %w", err)
	}

	slog.InfoContext(ctx, "Shift closed",
		"id", shift.ID,
		"worked_minutes", shift.WorkedMinutes(),
		"odometer_km", shift.OdometerKm())
	return shift, nil
}

// DeleteShift removes a shift and cascades to its fares.
func (s *ShiftService) DeleteShift(ctx context.Context, id string) error {
	shift, err := s.store.GetShift(ctx, id)
	if err != nil {
		return err
	}
	return s.store.DeleteShift(ctx, *shift)
}

// ActiveShift returns the currently open shift, nil when none.
func (s *ShiftService) ActiveShift(ctx context.Context) (*core.Shift, error) {
	return s.store.ActiveShift(ctx)
}

// CheckActiveInvariant is the operator diagnostic: the number of
// active shifts, which must be 0 or 1. Violations are logged, not
// repaired.
func (s *ShiftService) CheckActiveInvariant(ctx context.Context) (int64, error) {
	count, err := s.store.ActiveShiftCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("count active shifts: %w", err)
	}
	if count > 1 {
		slog.WarnContext(ctx, "Invariant violated: more than one active shift", "count", count)
	}
	return count, nil
}
