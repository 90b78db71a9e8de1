package worker

import (
	"context"
	"errors"
	"testing"

	"taxidiario/internal/amqp"
	"taxidiario/internal/core"
)

type fakeStore struct {
	fares map[int64]core.Fare
}

func (s *fakeStore) GetFare(_ context.Context, id int64) (*core.Fare, error) {
	f, ok := s.fares[id]
	if !ok {
		return nil, errors.New("fare not found")
	}
	return &f, nil
}

type fakeLedger struct {
	appended []int64
	removed  []int64
	failing  bool
}

func (l *fakeLedger) Append(_ context.Context, f core.Fare) (string, error) {
	if l.failing {
		return "", errors.New("sheets unavailable")
	}
	l.appended = append(l.appended, f.ID)
	return "Carreras!A2:J2", nil
}

func (l *fakeLedger) Remove(_ context.Context, fareID int64) error {
	if l.failing {
		return errors.New("sheets unavailable")
	}
	l.removed = append(l.removed, fareID)
	return nil
}

func sampleFare(id int64) core.Fare {
	return core.Fare{
		ID:      id,
		Date:    core.NewDate(2025, 1, 15),
		Metered: core.Money{Cents: 1250},
		Actual:  core.Money{Cents: 1500},
		Payment: core.PaymentCash,
	}
}

func TestHandleSyncMessageMirrorsFare(t *testing.T) {
	store := &fakeStore{fares: map[int64]core.Fare{7: sampleFare(7)}}
	led := &fakeLedger{}
	w := NewSyncWorker(store, led, led)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewFareSyncMessage(7, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(led.appended) != 1 || led.appended[0] != 7 {
		t.Fatalf("expected fare 7 appended, got %+v", led.appended)
	}
	if len(led.removed) != 0 {
		t.Fatalf("first version must not remove rows, got %+v", led.removed)
	}
}

func TestHandleSyncMessageUpdateReplacesRow(t *testing.T) {
	store := &fakeStore{fares: map[int64]core.Fare{7: sampleFare(7)}}
	led := &fakeLedger{}
	w := NewSyncWorker(store, led, led)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewFareSyncMessage(7, 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(led.removed) != 1 || led.removed[0] != 7 {
		t.Fatalf("expected stale row removed, got %+v", led.removed)
	}
	if len(led.appended) != 1 || led.appended[0] != 7 {
		t.Fatalf("expected fare 7 re-appended, got %+v", led.appended)
	}
}

func TestHandleSyncMessageDelete(t *testing.T) {
	store := &fakeStore{fares: map[int64]core.Fare{}}
	led := &fakeLedger{}
	w := NewSyncWorker(store, led, led)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewFareDeleteMessage(9)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(led.removed) != 1 || led.removed[0] != 9 {
		t.Fatalf("expected fare 9 removed, got %+v", led.removed)
	}
}

// A failed mirror must surface so the message is redelivered.
func TestHandleSyncMessageLedgerFailure(t *testing.T) {
	store := &fakeStore{fares: map[int64]core.Fare{7: sampleFare(7)}}
	led := &fakeLedger{failing: true}
	w := NewSyncWorker(store, led, led)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewFareSyncMessage(7, 1)); err == nil {
		t.Fatalf("expected error when ledger append fails")
	}
}

func TestHandleSyncMessageMissingFare(t *testing.T) {
	store := &fakeStore{fares: map[int64]core.Fare{}}
	w := NewSyncWorker(store, &fakeLedger{}, nil)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewFareSyncMessage(404, 1)); err == nil {
		t.Fatalf("expected error for unknown fare")
	}
}

func TestHandleSyncMessageWithoutWriter(t *testing.T) {
	store := &fakeStore{fares: map[int64]core.Fare{7: sampleFare(7)}}
	w := NewSyncWorker(store, nil, nil)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewFareSyncMessage(7, 1)); err != nil {
		t.Fatalf("missing writer must be a no-op, got %v", err)
	}
}
