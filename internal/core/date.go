package core

import (
	"errors"
	"time"
)

// The two date text encodings found in stored records.
const (
	displayLayout  = "02/01/2006" // dd/MM/yyyy, the form shown to the driver
	idSuffixLayout = "20060102"   // yyyyMMdd, the form embedded in shift ids
)

var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar day. The time-of-day portion is always midnight
// UTC so that equal days compare equal.
type Date struct {
	time.Time
}

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDisplayDate reads the dd/MM/yyyy form.
func ParseDisplayDate(s string) (Date, error) {
	t, err := time.ParseInLocation(displayLayout, s, time.UTC)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ParseIDSuffix reads the yyyyMMdd form used inside canonical shift ids.
func ParseIDSuffix(s string) (Date, error) {
	t, err := time.ParseInLocation(idSuffixLayout, s, time.UTC)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Display formats the date as dd/MM/yyyy.
func (d Date) Display() string {
	return d.Format(displayLayout)
}

// IDSuffix formats the date as yyyyMMdd.
func (d Date) IDSuffix() string {
	return d.Format(idSuffixLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month, 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// Before reports whether d falls on an earlier day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// Equal reports whether d and other are the same day.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// MonthBounds returns the first and last day of a month.
func MonthBounds(year, month int) (Date, Date) {
	first := NewDate(year, month, 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}

// parseDigits converts an all-digit string to an int. Unlike
// strconv.Atoi it rejects signs and spaces, which matters when
// deciding whether a shift reference is integer-bearing.
func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
