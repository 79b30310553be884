package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	// DefaultCategory is assigned when a transaction is recorded without a category.
	DefaultCategory = "Umum"

	// FallbackUnitLabel names the bucket for transactions whose unit id is unknown.
	FallbackUnitLabel = "Lainnya"

	// DateLayout is the wire format of a transaction date.
	DateLayout = "2006-01-02"

	// MaxDescriptionLength bounds a description in characters, not bytes.
	MaxDescriptionLength = 200
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	BusinessUnit struct {
		ID          string
		Name        string
		Description string
	}

	// NewTransaction is a transaction candidate before an id is assigned.
	NewTransaction struct {
		Date        Date
		Description string
		Amount      decimal.Decimal
		Type        TransactionType
		Category    string
		UnitID      string
	}

	Transaction struct {
		ID          string
		Date        Date
		Description string
		Amount      decimal.Decimal
		Type        TransactionType
		Category    string
		UnitID      string // not checked against the known units
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyDescription = errors.New("empty description")
	ErrLongDescription  = fmt.Errorf("description longer than %d characters", MaxDescriptionLength)
	ErrEmptyUnit        = errors.New("empty unit id")
	ErrEmptyID          = errors.New("empty transaction id")
)

// ParseTransactionType accepts INCOME or EXPENSE in any letter case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Equal compares calendar days only.
func (d Date) Equal(o Date) bool {
	return d.String() == o.String()
}

func (n NewTransaction) Validate() error {
	if err := n.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(n.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(strings.TrimSpace(n.Description)) > MaxDescriptionLength {
		return ErrLongDescription
	}
	if err := ValidateAmount(n.Amount); err != nil {
		return err
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, n.Type)
	}
	if strings.TrimSpace(n.UnitID) == "" {
		return ErrEmptyUnit
	}
	return nil
}

// WithID turns the candidate into a transaction. An empty category becomes DefaultCategory.
func (n NewTransaction) WithID(id string) Transaction {
	category := strings.TrimSpace(n.Category)
	if category == "" {
		category = DefaultCategory
	}
	return Transaction{
		ID:          id,
		Date:        n.Date,
		Description: strings.TrimSpace(n.Description),
		Amount:      n.Amount,
		Type:        n.Type,
		Category:    category,
		UnitID:      strings.TrimSpace(n.UnitID),
	}
}

// Validate checks a stored transaction, e.g. one decoded from the mirror.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	return nil
}

func (t Transaction) IsIncome() bool {
	return t.Type == Income
}
