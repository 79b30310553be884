// Package report aggregates ledger transactions for the dashboard and the
// advice prompt.
//
// Every function here is pure: the result depends only on the arguments, the
// input order never matters and nothing is retained between calls, so the
// functions are safe to call concurrently.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"bumdes/internal/core"
)

var hundred = decimal.NewFromInt(100)

type (
	// Totals are the enterprise-wide sums.
	Totals struct {
		Income    decimal.Decimal
		Expense   decimal.Decimal
		Balance   decimal.Decimal
		MarginPct decimal.Decimal
	}

	// PeriodKey identifies a calendar month bucket.
	PeriodKey struct {
		Year  int
		Month int // 1-12
	}

	// PeriodPoint is one bar of the monthly income/expense chart.
	PeriodPoint struct {
		PeriodKey
		Label   string
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	// UnitIncome is one slice of the per-unit income chart.
	UnitIncome struct {
		Label  string
		Income decimal.Decimal
	}

	// UnitFlow holds income and expense of a single unit.
	UnitFlow struct {
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}

	// UnitSummary maps a unit label to its flows.
	UnitSummary map[string]UnitFlow

	// Snapshot bundles every aggregate computed over the same ledger.
	Snapshot struct {
		Totals        Totals
		Series        []PeriodPoint
		UnitBreakdown []UnitIncome
		Units         UnitSummary
		Count         int
	}
)

// ComputeTotals sums incomes and expenses. The margin is zero when there is no income.
func ComputeTotals(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		t.add(tx)
	}
	return t.finish()
}

func (t *Totals) add(tx core.Transaction) {
	if tx.IsIncome() {
		t.Income = t.Income.Add(tx.Amount)
	} else {
		t.Expense = t.Expense.Add(tx.Amount)
	}
}

func (t Totals) finish() Totals {
	t.Balance = t.Income.Sub(t.Expense)
	t.MarginPct = decimal.Zero
	if !t.Income.IsZero() {
		t.MarginPct = t.Balance.Mul(hundred).Div(t.Income)
	}
	return t
}

// MarginRounded returns the margin rounded to one decimal place, as shown on the dashboard.
func (t Totals) MarginRounded() decimal.Decimal {
	return t.MarginPct.Round(1)
}

// ComputeTimeSeries groups transactions by (year, month) in chronological order.
// Months without transactions are not emitted.
func ComputeTimeSeries(txs []core.Transaction) []PeriodPoint {
	s := newSeriesBuilder()
	for _, tx := range txs {
		s.add(tx)
	}
	return s.points()
}

type seriesBuilder struct {
	buckets map[PeriodKey]*PeriodPoint
}

func newSeriesBuilder() *seriesBuilder {
	return &seriesBuilder{buckets: make(map[PeriodKey]*PeriodPoint)}
}

func (s *seriesBuilder) add(tx core.Transaction) {
	key := PeriodKey{Year: tx.Date.Year(), Month: tx.Date.Month()}
	p, ok := s.buckets[key]
	if !ok {
		p = &PeriodPoint{PeriodKey: key, Label: PeriodLabel(key)}
		s.buckets[key] = p
	}
	if tx.IsIncome() {
		p.Income = p.Income.Add(tx.Amount)
	} else {
		p.Expense = p.Expense.Add(tx.Amount)
	}
}

func (s *seriesBuilder) points() []PeriodPoint {
	out := make([]PeriodPoint, 0, len(s.buckets))
	for _, p := range s.buckets {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodKey.Before(out[j].PeriodKey) })
	return out
}

func (k PeriodKey) Before(o PeriodKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

// ComputeUnitBreakdown sums income per unit label in order of first appearance.
// Transactions pointing at an unknown unit are reported under core.FallbackUnitLabel.
func ComputeUnitBreakdown(txs []core.Transaction, units []core.BusinessUnit) []UnitIncome {
	b := newBreakdownBuilder(units)
	for _, tx := range txs {
		b.add(tx)
	}
	return b.out
}

type breakdownBuilder struct {
	labels labeler
	index  map[string]int
	out    []UnitIncome
}

func newBreakdownBuilder(units []core.BusinessUnit) *breakdownBuilder {
	return &breakdownBuilder{labels: newLabeler(units), index: make(map[string]int), out: []UnitIncome{}}
}

func (b *breakdownBuilder) add(tx core.Transaction) {
	if !tx.IsIncome() {
		return
	}
	label := b.labels.label(tx.UnitID)
	i, ok := b.index[label]
	if !ok {
		i = len(b.out)
		b.index[label] = i
		b.out = append(b.out, UnitIncome{Label: label})
	}
	b.out[i].Income = b.out[i].Income.Add(tx.Amount)
}

// SortByIncomeDesc orders a breakdown by value, largest first. Ties keep their order.
func SortByIncomeDesc(in []UnitIncome) []UnitIncome {
	out := append([]UnitIncome(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Income.GreaterThan(out[j].Income) })
	return out
}

// SummarizeByUnit tracks income and expense per unit label; this feeds the advice prompt.
func SummarizeByUnit(txs []core.Transaction, units []core.BusinessUnit) UnitSummary {
	labels := newLabeler(units)
	out := make(UnitSummary)
	for _, tx := range txs {
		out.add(labels.label(tx.UnitID), tx)
	}
	return out
}

func (s UnitSummary) add(label string, tx core.Transaction) {
	f := s[label]
	if tx.IsIncome() {
		f.Income = f.Income.Add(tx.Amount)
	} else {
		f.Expense = f.Expense.Add(tx.Amount)
	}
	s[label] = f
}

// Build computes every aggregate in a single pass over the ledger.
func Build(txs []core.Transaction, units []core.BusinessUnit) Snapshot {
	var totals Totals
	series := newSeriesBuilder()
	breakdown := newBreakdownBuilder(units)
	summary := make(UnitSummary)

	for _, tx := range txs {
		totals.add(tx)
		series.add(tx)
		breakdown.add(tx)
		summary.add(breakdown.labels.label(tx.UnitID), tx)
	}

	return Snapshot{
		Totals:        totals.finish(),
		Series:        series.points(),
		UnitBreakdown: breakdown.out,
		Units:         summary,
		Count:         len(txs),
	}
}

type labeler map[string]string

func newLabeler(units []core.BusinessUnit) labeler {
	l := make(labeler, len(units))
	for _, u := range units {
		if _, dup := l[u.ID]; !dup {
			l[u.ID] = u.Name
		}
	}
	return l
}

func (l labeler) label(unitID string) string {
	if name, ok := l[unitID]; ok {
		return name
	}
	return core.FallbackUnitLabel
}

// UnitLabeler returns a resolver from unit id to display label using the
// same fallback as the aggregates.
func UnitLabeler(units []core.BusinessUnit) func(unitID string) string {
	return newLabeler(units).label
}
