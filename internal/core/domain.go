package core

import (
	"errors"
	"strings"
)

const (
	PaymentCash    PaymentMethod = "CASH"
	PaymentCard    PaymentMethod = "CARD"
	PaymentBizum   PaymentMethod = "BIZUM"
	PaymentVoucher PaymentMethod = "VOUCHER"
)

type (
	PaymentMethod string

	// Shift is one working session ("turno"). Its ID is the canonical
	// form "{yyyyMMdd}-{sequence}"; fares may still reference it
	// through the legacy "Turno N" string.
	Shift struct {
		ID            string
		Date          Date
		StartTime     string // "HH:MM"
		EndTime       string // empty while the shift is open
		OdometerStart int64
		OdometerEnd   int64 // 0 while the shift is open
		Sequence      int   // 1-based within the day
		Active        bool
	}

	// Fare is a single taxi trip ("carrera") logged against a shift.
	Fare struct {
		ID       int64
		Date     Date
		Time     string
		Metered  Money
		Actual   Money
		Payment  PaymentMethod
		Dispatch bool // radio-dispatched trip
		Airport  bool
		ShiftRef string // raw reference, legacy or canonical encoding
	}

	Expense struct {
		ID          int64
		Invoice     string
		Supplier    string
		Date        Date
		Total       Money
		VAT         Money
		Odometer    int64
		Category    string // conventionally FUEL, MAINTENANCE, CLEANING, PARKING, OTHER
		Subcategory string
		Description string
	}

	OtherIncome struct {
		ID          int64
		Concept     string
		Date        Date
		Amount      Money
		Description string
		Notes       string
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidSequence   = errors.New("invalid shift sequence")
	ErrEmptyConcept      = errors.New("empty concept")
	ErrEmptySupplier     = errors.New("empty supplier")
	ErrShiftClosed       = errors.New("shift already closed")
	ErrShiftNotFound     = errors.New("shift not found")
	ErrActiveShiftExists = errors.New("another shift is still active")
	ErrOdometerRegressed = errors.New("odometer end below odometer start")
)

// Tip is the derived gratuity: actual minus metered when positive,
// zero otherwise. Never negative.
func (f Fare) Tip() Money {
	if f.Actual.Cents > f.Metered.Cents {
		return Money{Cents: f.Actual.Cents - f.Metered.Cents}
	}
	return Money{}
}

// Total is the amount the fare contributes to income: actual plus tip.
func (f Fare) Total() Money {
	return Money{Cents: f.Actual.Cents + f.Tip().Cents}
}

func (f Fare) Validate() error {
	if err := f.Date.Validate(); err != nil {
		return err
	}
	if f.Metered.Cents <= 0 || f.Actual.Cents <= 0 {
		return ErrInvalidAmount
	}
	switch f.Payment {
	case PaymentCash, PaymentCard, PaymentBizum, PaymentVoucher:
	default:
		return errors.New("unknown payment method")
	}
	return nil
}

func (s Shift) Validate() error {
	if err := s.Date.Validate(); err != nil {
		return err
	}
	if s.Sequence < 1 {
		return ErrInvalidSequence
	}
	return nil
}

// Closed reports whether the shift has been ended.
func (s Shift) Closed() bool {
	return !s.Active && s.EndTime != ""
}

// OdometerKm is the distance covered, zero while the shift is open.
func (s Shift) OdometerKm() int64 {
	if s.OdometerEnd <= 0 {
		return 0
	}
	delta := s.OdometerEnd - s.OdometerStart
	if delta < 0 {
		return 0
	}
	return delta
}

// WorkedMinutes is the shift duration in minutes. A negative raw
// difference (a shift crossing midnight without a date rollover) is
// clamped to zero; see the overnight fixture test for the documented
// behavior.
func (s Shift) WorkedMinutes() int {
	start, okStart := parseClock(s.StartTime)
	end, okEnd := parseClock(s.EndTime)
	if !okStart || !okEnd {
		return 0
	}
	minutes := end - start
	if minutes < 0 {
		return 0
	}
	return minutes
}

// parseClock reads "HH:MM" into minutes from midnight.
func parseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	sep := strings.IndexByte(s, ':')
	if sep < 1 || sep == len(s)-1 {
		return 0, false
	}
	h, okH := parseDigits(s[:sep])
	m, okM := parseDigits(s[sep+1:])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Total.Cents <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Supplier) == "" {
		return ErrEmptySupplier
	}
	return nil
}

func (o OtherIncome) Validate() error {
	if err := o.Date.Validate(); err != nil {
		return err
	}
	if o.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(o.Concept) == "" {
		return ErrEmptyConcept
	}
	return nil
}
