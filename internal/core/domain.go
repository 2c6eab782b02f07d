package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// DateLayout is the ISO 8601 calendar date form used for every stored date.
const DateLayout = "2006-01-02"

// MonthLayout is the YYYY-MM prefix used by month filters.
const MonthLayout = "2006-01"

type (
	TxType string

	// Transaction is a single income or expense record. Records are never
	// edited in place: they are created, and later removed by ID.
	Transaction struct {
		ID       string          `json:"id"`
		Date     string          `json:"date"`
		Type     TxType          `json:"type"`
		Category string          `json:"category"`
		Note     string          `json:"note"`
		Amount   decimal.Decimal `json:"amount"`
	}

	// ValidationError reports which field of a new transaction was rejected.
	ValidationError struct {
		Field string
		Err   error
	}
)

var (
	ErrEmptyNote     = errors.New("note cannot be empty")
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrInvalidType   = errors.New("type must be income or expense")
	ErrInvalidDate   = errors.New("date must be in YYYY-MM-DD form")
	ErrMissingID     = errors.New("missing id")
	ErrUnsafeText    = errors.New("must not contain line breaks")
	ErrUnsafeLabel   = errors.New("must not contain commas or line breaks")
)

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Valid reports whether t is one of the two known transaction types.
func (t TxType) Valid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (t TxType) String() string {
	return string(t)
}

// ParseTxType matches the exact lowercase enumeration values.
func ParseTxType(s string) (TxType, error) {
	t := TxType(s)
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

// ValidateDate checks that s is a real calendar date in DateLayout.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Today returns the current local date in DateLayout.
func Today() string {
	return time.Now().Format(DateLayout)
}

// CurrentMonth returns the YYYY-MM prefix of now.
func CurrentMonth(now time.Time) string {
	return now.Format(MonthLayout)
}

// ValidateCategory rejects labels that an unquoted CSV column cannot carry.
func ValidateCategory(s string) error {
	if strings.ContainsAny(s, ",\r\n") {
		return ErrUnsafeLabel
	}
	return nil
}

// Validate checks the invariants every stored transaction must hold.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return &ValidationError{Field: "id", Err: ErrMissingID}
	}
	if err := ValidateDate(t.Date); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	if !t.Type.Valid() {
		return &ValidationError{Field: "type", Err: ErrInvalidType}
	}
	if err := ValidateCategory(t.Category); err != nil {
		return &ValidationError{Field: "category", Err: err}
	}
	if strings.TrimSpace(t.Note) == "" {
		return &ValidationError{Field: "note", Err: ErrEmptyNote}
	}
	if strings.ContainsAny(t.Note, "\r\n") {
		return &ValidationError{Field: "note", Err: ErrUnsafeText}
	}
	if !t.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	return nil
}

// NewTransaction builds a validated transaction with a fresh ID.
// An empty date defaults to today.
func NewTransaction(date string, typ TxType, category, note string, amount decimal.Decimal) (Transaction, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		date = Today()
	}
	t := Transaction{
		ID:       NewID(),
		Date:     date,
		Type:     typ,
		Category: strings.TrimSpace(category),
		Note:     strings.TrimSpace(note),
		Amount:   amount,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}
