package storage

import (
	"context"
	"database/sql"
)

// Queries is the typed query layer over the raw connection. The
// repository converts between these row structs and the core types.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

type (
	shiftRow struct {
		ID            string
		Day           string // yyyyMMdd
		StartTime     string
		EndTime       string
		OdometerStart int64
		OdometerEnd   int64
		Sequence      int64
		Active        bool
	}

	fareRow struct {
		ID           int64
		Day          string
		Time         string
		MeteredCents int64
		ActualCents  int64
		Payment      string
		Dispatch     bool
		Airport      bool
		ShiftRef     string
	}

	expenseRow struct {
		ID          int64
		Invoice     string
		Supplier    string
		Day         string
		TotalCents  int64
		VATCents    int64
		Odometer    int64
		Category    string
		Subcategory string
		Description string
	}

	otherIncomeRow struct {
		ID          int64
		Concept     string
		Day         string
		AmountCents int64
		Description string
		Notes       string
	}
)

const shiftColumns = `id, day, start_time, end_time, odometer_start, odometer_end, sequence, active`

func scanShift(rows *sql.Rows) (shiftRow, error) {
	var s shiftRow
	err := rows.Scan(&s.ID, &s.Day, &s.StartTime, &s.EndTime, &s.OdometerStart, &s.OdometerEnd, &s.Sequence, &s.Active)
	return s, err
}

func (q *Queries) shiftsWhere(ctx context.Context, where string, args ...any) ([]shiftRow, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE `+where+` ORDER BY day, sequence`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []shiftRow
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *Queries) GetShiftsByDay(ctx context.Context, day string) ([]shiftRow, error) {
	return q.shiftsWhere(ctx, `day = ?`, day)
}

func (q *Queries) GetShiftsByDayRange(ctx context.Context, start, end string) ([]shiftRow, error) {
	return q.shiftsWhere(ctx, `day >= ? AND day <= ?`, start, end)
}

func (q *Queries) GetActiveShifts(ctx context.Context) ([]shiftRow, error) {
	return q.shiftsWhere(ctx, `active = 1`)
}

func (q *Queries) GetShift(ctx context.Context, id string) (shiftRow, error) {
	var s shiftRow
	err := q.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, id).
		Scan(&s.ID, &s.Day, &s.StartTime, &s.EndTime, &s.OdometerStart, &s.OdometerEnd, &s.Sequence, &s.Active)
	return s, err
}

func (q *Queries) CountActiveShifts(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shifts WHERE active = 1`).Scan(&n)
	return n, err
}

func (q *Queries) MaxSequenceForDay(ctx context.Context, day string) (int64, error) {
	var n sql.NullInt64
	err := q.db.QueryRowContext(ctx, `SELECT MAX(sequence) FROM shifts WHERE day = ?`, day).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n.Int64, nil
}

func (q *Queries) CreateShift(ctx context.Context, s shiftRow) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO shifts (id, day, start_time, end_time, odometer_start, odometer_end, sequence, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Day, s.StartTime, s.EndTime, s.OdometerStart, s.OdometerEnd, s.Sequence, s.Active)
	return err
}

func (q *Queries) UpdateShift(ctx context.Context, s shiftRow) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE shifts SET start_time = ?, end_time = ?, odometer_start = ?, odometer_end = ?, active = ? WHERE id = ?`,
		s.StartTime, s.EndTime, s.OdometerStart, s.OdometerEnd, s.Active, s.ID)
	return err
}

// DeleteShiftCascade removes a shift and every fare referencing it,
// under both reference encodings.
func (q *Queries) DeleteShiftCascade(ctx context.Context, id, legacyRef, day string) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fares WHERE shift_ref = ? AND day = ?`, legacyRef, day); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM fares WHERE shift_ref = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM shifts WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

const fareColumns = `id, day, time, metered_cents, actual_cents, payment, dispatch, airport, shift_ref`

func (q *Queries) GetFaresByDay(ctx context.Context, day string) ([]fareRow, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+fareColumns+` FROM fares WHERE day = ? ORDER BY id`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []fareRow
	for rows.Next() {
		var f fareRow
		if err := rows.Scan(&f.ID, &f.Day, &f.Time, &f.MeteredCents, &f.ActualCents, &f.Payment, &f.Dispatch, &f.Airport, &f.ShiftRef); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (q *Queries) GetFare(ctx context.Context, id int64) (fareRow, error) {
	var f fareRow
	err := q.db.QueryRowContext(ctx, `SELECT `+fareColumns+` FROM fares WHERE id = ?`, id).
		Scan(&f.ID, &f.Day, &f.Time, &f.MeteredCents, &f.ActualCents, &f.Payment, &f.Dispatch, &f.Airport, &f.ShiftRef)
	return f, err
}

func (q *Queries) CreateFare(ctx context.Context, f fareRow) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO fares (day, time, metered_cents, actual_cents, payment, dispatch, airport, shift_ref)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Day, f.Time, f.MeteredCents, f.ActualCents, f.Payment, f.Dispatch, f.Airport, f.ShiftRef)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) UpdateFare(ctx context.Context, f fareRow) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE fares SET day = ?, time = ?, metered_cents = ?, actual_cents = ?, payment = ?, dispatch = ?, airport = ?, shift_ref = ? WHERE id = ?`,
		f.Day, f.Time, f.MeteredCents, f.ActualCents, f.Payment, f.Dispatch, f.Airport, f.ShiftRef, f.ID)
	return err
}

func (q *Queries) DeleteFare(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM fares WHERE id = ?`, id)
	return err
}

const expenseColumns = `id, invoice, supplier, day, total_cents, vat_cents, odometer, category, subcategory, description`

func (q *Queries) GetExpensesByDay(ctx context.Context, day string) ([]expenseRow, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE day = ? ORDER BY id`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []expenseRow
	for rows.Next() {
		var e expenseRow
		if err := rows.Scan(&e.ID, &e.Invoice, &e.Supplier, &e.Day, &e.TotalCents, &e.VATCents, &e.Odometer, &e.Category, &e.Subcategory, &e.Description); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *Queries) CreateExpense(ctx context.Context, e expenseRow) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO expenses (invoice, supplier, day, total_cents, vat_cents, odometer, category, subcategory, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Invoice, e.Supplier, e.Day, e.TotalCents, e.VATCents, e.Odometer, e.Category, e.Subcategory, e.Description)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) DeleteExpense(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	return err
}

const otherIncomeColumns = `id, concept, day, amount_cents, description, notes`

func (q *Queries) GetOtherIncomeByDay(ctx context.Context, day string) ([]otherIncomeRow, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+otherIncomeColumns+` FROM other_income WHERE day = ? ORDER BY id`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []otherIncomeRow
	for rows.Next() {
		var o otherIncomeRow
		if err := rows.Scan(&o.ID, &o.Concept, &o.Day, &o.AmountCents, &o.Description, &o.Notes); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (q *Queries) CreateOtherIncome(ctx context.Context, o otherIncomeRow) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO other_income (concept, day, amount_cents, description, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		o.Concept, o.Day, o.AmountCents, o.Description, o.Notes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) DeleteOtherIncome(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM other_income WHERE id = ?`, id)
	return err
}
