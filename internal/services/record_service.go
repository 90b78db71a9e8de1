package services

import (
	"context"
	"fmt"

	"taxidiario/internal/core"
)

// RecordService handles the date-grouped entities with no shift
// relationship: expenses and other income.
type RecordService struct {
	store Store
}

func NewRecordService(store Store) *RecordService {
	return &RecordService{store: store}
}

func (s *RecordService) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.InsertExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}
	return id, nil
}

func (s *RecordService) DeleteExpense(ctx context.Context, id int64) error {
	return s.store.DeleteExpense(ctx, id)
}

func (s *RecordService) AddOtherIncome(ctx context.Context, o core.OtherIncome) (int64, error) {
	if err := o.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.InsertOtherIncome(ctx, o)
	if err != nil {
		return 0, fmt.Errorf("save other income: %w", err)
	}
	return id, nil
}

func (s *RecordService) DeleteOtherIncome(ctx context.Context, id int64) error {
	return s.store.DeleteOtherIncome(ctx, id)
}
