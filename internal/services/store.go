// Package services orchestrates the write path: shift lifecycle, fare
// entry, and expense/other-income recording. Records are saved to the
// local store first; ledger sync messages are published best-effort
// afterwards and never fail the request.
package services

import (
	"context"

	"taxidiario/internal/core"
)

// Store is the slice of the record store the write services need.
// *storage.SQLiteRepository satisfies it.
type Store interface {
	ActiveShift(ctx context.Context) (*core.Shift, error)
	ActiveShiftCount(ctx context.Context) (int64, error)
	NextSequence(ctx context.Context, day core.Date) (int, error)
	GetShift(ctx context.Context, id string) (*core.Shift, error)
	InsertShift(ctx context.Context, s core.Shift) error
	UpdateShift(ctx context.Context, s core.Shift) error
	DeleteShift(ctx context.Context, s core.Shift) error

	GetFare(ctx context.Context, id int64) (*core.Fare, error)
	InsertFare(ctx context.Context, f core.Fare) (int64, error)
	UpdateFare(ctx context.Context, f core.Fare) error
	DeleteFare(ctx context.Context, id int64) error

	InsertExpense(ctx context.Context, e core.Expense) (int64, error)
	DeleteExpense(ctx context.Context, id int64) error
	InsertOtherIncome(ctx context.Context, o core.OtherIncome) (int64, error)
	DeleteOtherIncome(ctx context.Context, id int64) error
}

// SyncPublisher pushes change notifications for the ledger worker.
// *amqp.Client satisfies it.
type SyncPublisher interface {
	PublishFareSync(ctx context.Context, id, version int64) error
	PublishFareDelete(ctx context.Context, id int64) error
}
