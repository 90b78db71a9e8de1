package services

import (
	"context"
	"errors"
	"testing"

	"taxidiario/internal/core"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	shifts   map[string]core.Shift
	fares    map[int64]core.Fare
	expenses map[int64]core.Expense
	incomes  map[int64]core.OtherIncome
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		shifts:   make(map[string]core.Shift),
		fares:    make(map[int64]core.Fare),
		expenses: make(map[int64]core.Expense),
		incomes:  make(map[int64]core.OtherIncome),
	}
}

func (m *memStore) ActiveShift(context.Context) (*core.Shift, error) {
	for _, s := range m.shifts {
		if s.Active {
			active := s
			return &active, nil
		}
	}
	return nil, nil
}

func (m *memStore) ActiveShiftCount(context.Context) (int64, error) {
	var n int64
	for _, s := range m.shifts {
		if s.Active {
			n++
		}
	}
	return n, nil
}

func (m *memStore) NextSequence(_ context.Context, day core.Date) (int, error) {
	max := 0
	for _, s := range m.shifts {
		if s.Date.Equal(day) && s.Sequence > max {
			max = s.Sequence
		}
	}
	return max + 1, nil
}

func (m *memStore) GetShift(_ context.Context, id string) (*core.Shift, error) {
	s, ok := m.shifts[id]
	if !ok {
		return nil, core.ErrShiftNotFound
	}
	return &s, nil
}

func (m *memStore) InsertShift(_ context.Context, s core.Shift) error {
	m.shifts[s.ID] = s
	return nil
}

func (m *memStore) UpdateShift(_ context.Context, s core.Shift) error {
	m.shifts[s.ID] = s
	return nil
}

func (m *memStore) DeleteShift(_ context.Context, s core.Shift) error {
	delete(m.shifts, s.ID)
	for id, f := range m.fares {
		ref := core.ParseShiftRef(f.ShiftRef)
		if canonical, ok := ref.CanonicalID(f.Date); ok && canonical == s.ID {
			delete(m.fares, id)
		}
	}
	return nil
}

func (m *memStore) GetFare(_ context.Context, id int64) (*core.Fare, error) {
	f, ok := m.fares[id]
	if !ok {
		return nil, errors.New("fare not found")
	}
	return &f, nil
}

func (m *memStore) InsertFare(_ context.Context, f core.Fare) (int64, error) {
	m.nextID++
	f.ID = m.nextID
	m.fares[f.ID] = f
	return f.ID, nil
}

func (m *memStore) UpdateFare(_ context.Context, f core.Fare) error {
	m.fares[f.ID] = f
	return nil
}

func (m *memStore) DeleteFare(_ context.Context, id int64) error {
	delete(m.fares, id)
	return nil
}

func (m *memStore) InsertExpense(_ context.Context, e core.Expense) (int64, error) {
	m.nextID++
	e.ID = m.nextID
	m.expenses[e.ID] = e
	return e.ID, nil
}

func (m *memStore) DeleteExpense(_ context.Context, id int64) error {
	delete(m.expenses, id)
	return nil
}

func (m *memStore) InsertOtherIncome(_ context.Context, o core.OtherIncome) (int64, error) {
	m.nextID++
	o.ID = m.nextID
	m.incomes[o.ID] = o
	return o.ID, nil
}

func (m *memStore) DeleteOtherIncome(_ context.Context, id int64) error {
	delete(m.incomes, id)
	return nil
}

// recordingPublisher captures published sync messages; failing toggles
// errors to verify publishes never fail a request.
type recordingPublisher struct {
	syncs   []int64
	deletes []int64
	failing bool
}

func (p *recordingPublisher) PublishFareSync(_ context.Context, id, _ int64) error {
	if p.failing {
		return errors.New("broker down")
	}
	p.syncs = append(p.syncs, id)
	return nil
}

func (p *recordingPublisher) PublishFareDelete(_ context.Context, id int64) error {
	if p.failing {
		return errors.New("broker down")
	}
	p.deletes = append(p.deletes, id)
	return nil
}

func TestOpenShiftAssignsCanonicalID(t *testing.T) {
	store := newMemStore()
	svc := NewShiftService(store)
	day := core.NewDate(2025, 1, 15)

	shift, err := svc.OpenShift(context.Background(), day, "08:00", 100000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shift.ID != "20250115-1" || !shift.Active || shift.OdometerEnd != 0 || shift.EndTime != "" {
		t.Fatalf("unexpected shift: %+v", shift)
	}
}

func TestOpenShiftRejectsSecondActive(t *testing.T) {
	store := newMemStore()
	svc := NewShiftService(store)
	day := core.NewDate(2025, 1, 15)

	if _, err := svc.OpenShift(context.Background(), day, "08:00", 100000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.OpenShift(context.Background(), day, "16:30", 100150); !errors.Is(err, core.ErrActiveShiftExists) {
		t.Fatalf("expected ErrActiveShiftExists, got %v", err)
	}
}

func TestSecondShiftSameDayGetsNextSequence(t *testing.T) {
	store := newMemStore()
	svc := NewShiftService(store)
	day := core.NewDate(2025, 1, 15)
	ctx := context.Background()

	first, _ := svc.OpenShift(ctx, day, "08:00", 100000)
	if _, err := svc.CloseShift(ctx, first.ID, "14:00", 100100); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	second, err := svc.OpenShift(ctx, day, "16:00", 100100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != "20250115-2" || second.Sequence != 2 {
		t.Fatalf("expected sequence 2, got %+v", second)
	}
}

func TestCloseShift(t *testing.T) {
	store := newMemStore()
	svc := NewShiftService(store)
	ctx := context.Background()
	shift, _ := svc.OpenShift(ctx, core.NewDate(2025, 1, 15), "08:00", 100000)

	closed, err := svc.CloseShift(ctx, shift.ID, "16:00", 100150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closed.Active || closed.EndTime != "16:00" || closed.OdometerEnd != 100150 {
		t.Fatalf("unexpected closed shift: %+v", closed)
	}

	if _, err := svc.CloseShift(ctx, shift.ID, "17:00", 100160); !errors.Is(err, core.ErrShiftClosed) {
		t.Fatalf("expected ErrShiftClosed, got %v", err)
	}
}

func TestCloseShiftRejectsOdometerRegression(t *testing.T) {
	store := newMemStore()
	svc := NewShiftService(store)
	ctx := context.Background()
	shift, _ := svc.OpenShift(ctx, core.NewDate(2025, 1, 15), "08:00", 100000)

	if _, err := svc.CloseShift(ctx, shift.ID, "16:00", 99000); !errors.Is(err, core.ErrOdometerRegressed) {
		t.Fatalf("expected ErrOdometerRegressed, got %v", err)
	}
}

func TestCheckActiveInvariant(t *testing.T) {
	store := newMemStore()
	svc := NewShiftService(store)
	ctx := context.Background()

	count, err := svc.CheckActiveInvariant(ctx)
	if err != nil || count != 0 {
		t.Fatalf("expected 0 active, got %d (%v)", count, err)
	}

	svc.OpenShift(ctx, core.NewDate(2025, 1, 15), "08:00", 100000)
	count, err = svc.CheckActiveInvariant(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 active, got %d (%v)", count, err)
	}
}

func testFare(day core.Date) core.Fare {
	return core.Fare{
		Date:    day,
		Metered: core.Money{Cents: 1250},
		Actual:  core.Money{Cents: 1500},
		Payment: core.PaymentCash,
	}
}

func TestLogFareAttachesToActiveShift(t *testing.T) {
	store := newMemStore()
	shifts := NewShiftService(store)
	pub := &recordingPublisher{}
	fares := NewFareService(store, pub)
	ctx := context.Background()
	day := core.NewDate(2025, 1, 15)

	shift, _ := shifts.OpenShift(ctx, day, "08:00", 100000)

	id, err := fares.LogFare(ctx, testFare(day))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	saved, _ := store.GetFare(ctx, id)
	if saved.ShiftRef != shift.ID {
		t.Fatalf("fare not attached to active shift: %+v", saved)
	}
	if len(pub.syncs) != 1 || pub.syncs[0] != id {
		t.Fatalf("expected one sync publish for fare %d, got %+v", id, pub.syncs)
	}
}

func TestLogFareWithoutActiveShift(t *testing.T) {
	fares := NewFareService(newMemStore(), nil)
	if _, err := fares.LogFare(context.Background(), testFare(core.NewDate(2025, 1, 15))); !errors.Is(err, core.ErrShiftNotFound) {
		t.Fatalf("expected ErrShiftNotFound, got %v", err)
	}
}

func TestLogFareRejectsClosedShift(t *testing.T) {
	store := newMemStore()
	shifts := NewShiftService(store)
	fares := NewFareService(store, nil)
	ctx := context.Background()
	day := core.NewDate(2025, 1, 15)

	shift, _ := shifts.OpenShift(ctx, day, "08:00", 100000)
	shifts.CloseShift(ctx, shift.ID, "16:00", 100150)

	fare := testFare(day)
	fare.ShiftRef = shift.ID
	if _, err := fares.LogFare(ctx, fare); !errors.Is(err, core.ErrShiftClosed) {
		t.Fatalf("expected ErrShiftClosed, got %v", err)
	}
}

// A broker outage must not fail the local save.
func TestLogFareSurvivesPublishFailure(t *testing.T) {
	store := newMemStore()
	shifts := NewShiftService(store)
	pub := &recordingPublisher{failing: true}
	fares := NewFareService(store, pub)
	ctx := context.Background()
	day := core.NewDate(2025, 1, 15)

	shifts.OpenShift(ctx, day, "08:00", 100000)
	id, err := fares.LogFare(ctx, testFare(day))
	if err != nil {
		t.Fatalf("publish failure must not fail the save: %v", err)
	}
	if _, err := store.GetFare(ctx, id); err != nil {
		t.Fatalf("fare not saved: %v", err)
	}
}

func TestLogFareRejectsInvalidAmounts(t *testing.T) {
	fares := NewFareService(newMemStore(), nil)
	bad := core.Fare{Date: core.NewDate(2025, 1, 15), Payment: core.PaymentCash}
	if _, err := fares.LogFare(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestDeleteShiftCascadesToFares(t *testing.T) {
	store := newMemStore()
	shifts := NewShiftService(store)
	fares := NewFareService(store, nil)
	ctx := context.Background()
	day := core.NewDate(2025, 1, 15)

	shift, _ := shifts.OpenShift(ctx, day, "08:00", 100000)
	id, _ := fares.LogFare(ctx, testFare(day))

	if err := shifts.DeleteShift(ctx, shift.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetFare(ctx, id); err == nil {
		t.Fatalf("fare must be cascade-deleted with its shift")
	}
}

func TestRecordService(t *testing.T) {
	store := newMemStore()
	svc := NewRecordService(store)
	ctx := context.Background()
	day := core.NewDate(2025, 1, 15)

	if _, err := svc.AddExpense(ctx, core.Expense{Date: day, Supplier: "Repsol", Total: core.Money{Cents: 4500}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddExpense(ctx, core.Expense{Date: day, Supplier: "", Total: core.Money{Cents: 1}}); err == nil {
		t.Fatalf("expected validation error")
	}

	id, err := svc.AddOtherIncome(ctx, core.OtherIncome{Date: day, Concept: "Publicidad", Amount: core.Money{Cents: 3000}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteOtherIncome(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
