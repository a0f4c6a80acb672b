package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "Income"
	Expense Kind = "Expense"
)

// AnonymousOwner is the implicit owner of every transaction in the
// single-session memory variant.
const AnonymousOwner int64 = 0

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

type (
	// Kind classifies a transaction as income or expense.
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// User is an account in the persisted variant. Created on
	// registration, never mutated, never deleted.
	User struct {
		ID           int64
		Username     string
		PasswordHash string
	}

	Transaction struct {
		ID       int64 // stable identifier assigned at creation
		Owner    int64 // user ID, or AnonymousOwner in the memory variant
		Date     Date
		Category string
		Amount   Money
		Kind     Kind
	}
)

var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyCategory       = errors.New("empty category")
	ErrCategoryTooLong     = errors.New("category too long (max 200 characters)")
	ErrInvalidKind         = errors.New("invalid transaction kind")
	ErrDuplicateUsername   = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date in storage format.
func (d Date) String() string {
	return d.Format(DateLayout)
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

// ParseKind parses the wire form of a transaction kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Category) > 200 {
		return ErrCategoryTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.Kind.Validate()
}

// IsValidation reports whether err belongs to the input-validation part
// of the error taxonomy, as opposed to not-found or credential failures.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrEmptyCategory) ||
		errors.Is(err, ErrCategoryTooLong) ||
		errors.Is(err, ErrInvalidKind)
}
