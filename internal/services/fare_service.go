package services

import (
	"context"
	"fmt"
	"log/slog"

	"taxidiario/internal/core"
)

// FareService records trips against the active shift and mirrors
// changes to the ledger queue.
type FareService struct {
	store     Store
	publisher SyncPublisher
}

func NewFareService(store Store, publisher SyncPublisher) *FareService {
	return &FareService{store: store, publisher: publisher}
}

// LogFare persists a new fare. Without an explicit shift reference the
// fare is attached to the currently active shift; with one, the target
// shift must exist and still be open.
func (s *FareService) LogFare(ctx context.Context, fare core.Fare) (int64, error) {
	if err := fare.Validate(); err != nil {
		return 0, err
	}

	if fare.ShiftRef == "" {
		active, err := s.store.ActiveShift(ctx)
		if err != nil {
			return 0, fmt.Errorf("check active shift: %w", err)
		}
		if active == nil {
			return 0, core.ErrShiftNotFound
		}
		fare.ShiftRef = active.ID
	} else {
		ref := core.ParseShiftRef(fare.ShiftRef)
		id, ok := ref.CanonicalID(fare.Date)
		if !ok {
			return 0, fmt.Errorf("malformed shift reference %q", fare.ShiftRef)
		}
		shift, err := s.store.GetShift(ctx, id)
		if err != nil {
			return 0, err
		}
		if shift.Closed() {
			return 0, core.ErrShiftClosed
		}
	}

	id, err := s.store.InsertFare(ctx, fare)
	if err != nil {
		return 0, fmt.Errorf("save fare: %w", err)
	}

	// Save locally first; a failed publish must not fail the request.
	if err := s.publishSync(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish fare sync message", "id", id, "error", err)
	}

	return id, nil
}

// Get returns a stored fare by id.
func (s *FareService) Get(ctx context.Context, id int64) (*core.Fare, error) {
	return s.store.GetFare(ctx, id)
}

// UpdateFare applies an edit from the edit screens and republishes.
func (s *FareService) UpdateFare(ctx context.Context, fare core.Fare) error {
	if err := fare.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateFare(ctx, fare); err != nil {
		return fmt.Errorf("update fare: %w", err)
	}
	if err := s.publishSync(ctx, fare.ID, 2); err != nil {
		slog.ErrorContext(ctx, "Failed to publish fare sync message", "id", fare.ID, "error", err)
	}
	return nil
}

func (s *FareService) DeleteFare(ctx context.Context, id int64) error {
	if err := s.store.DeleteFare(ctx, id); err != nil {
		return fmt.Errorf("delete fare: %w", err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishFareDelete(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish fare delete message", "id", id, "error", err)
		}
	}
	return nil
}

func (s *FareService) publishSync(ctx context.Context, id, version int64) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Sync publisher not configured, skipping message", "id", id)
		return nil
	}
	return s.publisher.PublishFareSync(ctx, id, version)
}
