// Package worker mirrors locally saved fares to the external ledger
// in response to sync messages from the AMQP queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"taxidiario/internal/amqp"
	"taxidiario/internal/core"
	"taxidiario/internal/ledger"
)

// FareStore is the slice of the record store the worker reads from.
type FareStore interface {
	GetFare(ctx context.Context, id int64) (*core.Fare, error)
}

// SyncWorker consumes fare sync messages and writes the referenced
// fares to the ledger.
type SyncWorker struct {
	store   FareStore
	writer  ledger.FareWriter
	remover ledger.FareRemover
}

func NewSyncWorker(store FareStore, writer ledger.FareWriter, remover ledger.FareRemover) *SyncWorker {
	return &SyncWorker{
		store:   store,
		writer:  writer,
		remover: remover,
	}
}

// HandleSyncMessage processes a single fare sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.FareSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"op", msg.Op,
		"version", msg.Version)

	if msg.Op == amqp.OpDelete {
		return w.handleDelete(ctx, msg.ID)
	}

	fare, err := w.store.GetFare(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get fare from storage: %w", err)
	}

	if w.writer == nil {
		slog.WarnContext(ctx, "No ledger writer configured, skipping mirror", "id", msg.ID)
		return nil
	}

	// Edits re-mirror the row: remove the stale copy, then append.
	if msg.Version > 1 && w.remover != nil {
		if err := w.remover.Remove(ctx, msg.ID); err != nil {
			return fmt.Errorf("remove stale ledger row: %w", err)
		}
	}

	ref, err := w.writer.Append(ctx, *fare)
	if err != nil {
		return fmt.Errorf("append fare to ledger: %w", err)
	}

	slog.InfoContext(ctx, "Fare mirrored to ledger", "id", msg.ID, "ledger_ref", ref)
	return nil
}

func (w *SyncWorker) handleDelete(ctx context.Context, id int64) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No ledger remover configured, skipping deletion", "id", id)
		return nil
	}
	if err := w.remover.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove fare from ledger: %w", err)
	}
	slog.InfoContext(ctx, "Fare removed from ledger", "id", id)
	return nil
}

// Run consumes fare sync messages until the context is cancelled.
func (w *SyncWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeFareSync(ctx, func(msg *amqp.FareSyncMessage) error {
		return w.HandleSyncMessage(ctx, msg)
	})
}
