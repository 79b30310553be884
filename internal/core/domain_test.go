package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2023-10-15")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2023 || d.Month() != 10 || d.Day() != 15 {
		t.Fatalf("unexpected date %v", d)
	}
	if d.String() != "2023-10-15" {
		t.Fatalf("unexpected format %q", d.String())
	}
	for _, bad := range []string{"", "15/10/2023", "2023-13-01", "2023-10-15T10:00:00Z"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestParseTransactionType(t *testing.T) {
	for in, want := range map[string]TransactionType{"INCOME": Income, "expense": Expense, " Income ": Income} {
		got, err := ParseTransactionType(in)
		if err != nil || got != want {
			t.Fatalf("%q expected %s, got %s (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseTransactionType("TRANSFER"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestNewTransactionValidate(t *testing.T) {
	good := NewTransaction{
		Date:        NewDate(2023, 10, 1),
		Description: "Penjualan",
		Amount:      decimal.NewFromInt(100),
		Type:        Income,
		UnitID:      "u1",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zero := good
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be accepted, got %v", err)
	}

	cases := []struct {
		mutate func(*NewTransaction)
		want   error
	}{
		{func(n *NewTransaction) { n.Date = Date{} }, ErrInvalidDate},
		{func(n *NewTransaction) { n.Description = "  " }, ErrEmptyDescription},
		{func(n *NewTransaction) { n.Description = strings.Repeat("a", MaxDescriptionLength+1) }, ErrLongDescription},
		{func(n *NewTransaction) { n.Amount = decimal.NewFromInt(-5) }, ErrInvalidAmount},
		{func(n *NewTransaction) { n.Type = "TRANSFER" }, ErrInvalidType},
		{func(n *NewTransaction) { n.UnitID = "" }, ErrEmptyUnit},
	}
	for i, tc := range cases {
		n := good
		tc.mutate(&n)
		if err := n.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestDescriptionLengthCountsCharacters(t *testing.T) {
	n := NewTransaction{Date: NewDate(2023, 10, 1), Amount: decimal.NewFromInt(1), Type: Income, UnitID: "u1"}

	n.Description = strings.Repeat("é", MaxDescriptionLength)
	if err := n.Validate(); err != nil {
		t.Fatalf("%d two-byte characters should be accepted, got %v", MaxDescriptionLength, err)
	}

	n.Description = "  " + strings.Repeat("a", MaxDescriptionLength) + "  "
	if err := n.Validate(); err != nil {
		t.Fatalf("surrounding blanks should not count, got %v", err)
	}

	n.Description = strings.Repeat("é", MaxDescriptionLength+1)
	if err := n.Validate(); !errors.Is(err, ErrLongDescription) {
		t.Fatalf("expected ErrLongDescription, got %v", err)
	}
}

func TestWithIDDefaultsCategory(t *testing.T) {
	n := NewTransaction{Date: NewDate(2023, 10, 1), Description: " x ", Amount: decimal.NewFromInt(1), Type: Expense, UnitID: "u9"}
	tx := n.WithID("abc")
	if tx.ID != "abc" || tx.Category != DefaultCategory || tx.Description != "x" || tx.UnitID != "u9" {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	n.Category = "Gaji"
	if got := n.WithID("abc").Category; got != "Gaji" {
		t.Fatalf("expected category to be kept, got %q", got)
	}
}

func TestSeedTransactionsAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, tx := range SeedTransactions() {
		if err := tx.Validate(); err != nil {
			t.Fatalf("seed %s invalid: %v", tx.ID, err)
		}
		if seen[tx.ID] {
			t.Fatalf("duplicate seed id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
	if len(SeedUnits()) != 4 {
		t.Fatalf("expected 4 seed units")
	}
}
