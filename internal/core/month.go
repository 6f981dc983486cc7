package core

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"
)

const (
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
	// MonthLayout is the wire format for month keys.
	MonthLayout = "2006-01"
	// EditableMonths is how many months before the current one stay editable.
	EditableMonths = 2
)

// Date is a calendar date without time of day, always in UTC.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// Key returns the month the date falls in.
func (d Date) Key() Month {
	return Month{Year: d.Year(), Month: d.Time.Month()}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalJSON encodes zero dates as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		*d = Date{}
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Month is a YYYY-MM bucket key. Its text form sorts chronologically.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month t falls in.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM key. Malformed input wraps ErrInvalidArgument.
func ParseMonth(s string) (Month, error) {
	if len(s) != len(MonthLayout) {
		return Month{}, fmt.Errorf("%w: month key %q must be YYYY-MM", ErrInvalidArgument, s)
	}
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: month key %q must be YYYY-MM", ErrInvalidArgument, s)
	}
	return MonthOf(t), nil
}

// MustParseMonth is ParseMonth for literals and tests; it panics on malformed input.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// Start returns the first day of the month.
func (m Month) Start() Date {
	return NewDate(m.Year, int(m.Month), 1)
}

// AddMonths shifts the key by n calendar months.
func (m Month) AddMonths(n int) Month {
	return MonthOf(time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC))
}

// Before reports whether m is chronologically earlier than o.
func (m Month) Before(o Month) bool {
	return m.index() < o.index()
}

// Contains reports whether d falls within the month.
func (m Month) Contains(d Date) bool {
	return d.Key() == m
}

func (m Month) index() int {
	return m.Year*12 + int(m.Month) - 1
}

func (m Month) Validate() error {
	if m.Month < time.January || m.Month > time.December || m.Year <= 0 {
		return fmt.Errorf("%w: month key %s out of range", ErrInvalidArgument, m)
	}
	return nil
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MonthsBetween returns the signed calendar-month distance from m to cur.
// It is positive when m lies in the past relative to cur.
func MonthsBetween(cur, m Month) int {
	return cur.index() - m.index()
}

// SortMonths orders keys chronologically in place.
func SortMonths(ms []Month) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].Before(ms[j]) })
}

// TrailingMonths returns n month keys ending at last, oldest first.
func TrailingMonths(last Month, n int) []Month {
	out := make([]Month, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, last.AddMonths(-i))
	}
	return out
}

// IsEditable reports whether records in monthYear may still be created or
// amended as of asOf: the current month and the two before it. Future months
// and anything older are locked. The result depends on the wall clock through
// asOf and must not be cached.
func IsEditable(monthYear string, asOf time.Time) (bool, error) {
	m, err := ParseMonth(monthYear)
	if err != nil {
		return false, err
	}
	return MonthEditable(m, asOf), nil
}

// MustIsEditable is IsEditable for callers that already hold a well-formed
// key; a malformed key is a programming error and panics.
func MustIsEditable(monthYear string, asOf time.Time) bool {
	ok, err := IsEditable(monthYear, asOf)
	if err != nil {
		panic(err)
	}
	return ok
}

// MonthEditable is the typed form of IsEditable.
func MonthEditable(m Month, asOf time.Time) bool {
	d := MonthsBetween(MonthOf(asOf), m)
	return d >= 0 && d <= EditableMonths
}

// CheckEditable returns ErrMonthLocked when m is outside the editable window.
func CheckEditable(m Month, asOf time.Time) error {
	if !MonthEditable(m, asOf) {
		return fmt.Errorf("%w: %s", ErrMonthLocked, m)
	}
	return nil
}
