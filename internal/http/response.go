package http

import (
	"encoding/json"
	"net/http"

	"bumdes/internal/core"
	"bumdes/internal/log"
	"bumdes/internal/report"
	"bumdes/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Default().WithComponent(log.ComponentHTTP).Error("Failed to encode response", log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

type unitJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toUnitsJSON(units []core.BusinessUnit) []unitJSON {
	out := make([]unitJSON, len(units))
	for i, u := range units {
		out[i] = unitJSON{ID: u.ID, Name: u.Name, Description: u.Description}
	}
	return out
}

// transactionJSON is the mirror record plus display fields.
type transactionJSON struct {
	store.Record
	UnitName        string `json:"unitName"`
	AmountFormatted string `json:"amountFormatted"`
}

func toTransactionJSON(tx core.Transaction, unitName func(string) string) transactionJSON {
	return transactionJSON{
		Record:          store.ToRecord(tx),
		UnitName:        unitName(tx.UnitID),
		AmountFormatted: report.FormatRupiah(tx.Amount),
	}
}

type listResponse struct {
	Transactions []transactionJSON `json:"transactions"`
	Count        int               `json:"count"`
	Revision     uint64            `json:"revision"`
}

type totalsJSON struct {
	Income    string `json:"income"`
	Expense   string `json:"expense"`
	Balance   string `json:"balance"`
	MarginPct string `json:"marginPct"`

	IncomeFormatted  string `json:"incomeFormatted"`
	ExpenseFormatted string `json:"expenseFormatted"`
	BalanceFormatted string `json:"balanceFormatted"`
}

type periodJSON struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Label   string `json:"label"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

type unitIncomeJSON struct {
	Label  string `json:"label"`
	Income string `json:"income"`
}

type unitFlowJSON struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

type reportResponse struct {
	Revision      uint64                  `json:"revision"`
	Count         int                     `json:"count"`
	Totals        totalsJSON              `json:"totals"`
	Series        []periodJSON            `json:"series"`
	UnitBreakdown []unitIncomeJSON        `json:"unitBreakdown"`
	Units         map[string]unitFlowJSON `json:"units"`
}

func toReportResponse(rev uint64, snap report.Snapshot) reportResponse {
	t := snap.Totals
	resp := reportResponse{
		Revision: rev,
		Count:    snap.Count,
		Totals: totalsJSON{
			Income:           t.Income.String(),
			Expense:          t.Expense.String(),
			Balance:          t.Balance.String(),
			MarginPct:        t.MarginRounded().StringFixed(1),
			IncomeFormatted:  report.FormatRupiah(t.Income),
			ExpenseFormatted: report.FormatRupiah(t.Expense),
			BalanceFormatted: report.FormatRupiah(t.Balance),
		},
		Series:        make([]periodJSON, len(snap.Series)),
		UnitBreakdown: []unitIncomeJSON{},
		Units:         make(map[string]unitFlowJSON, len(snap.Units)),
	}
	for i, p := range snap.Series {
		resp.Series[i] = periodJSON{
			Year:    p.Year,
			Month:   p.Month,
			Label:   p.Label,
			Income:  p.Income.String(),
			Expense: p.Expense.String(),
		}
	}
	for _, u := range report.SortByIncomeDesc(snap.UnitBreakdown) {
		resp.UnitBreakdown = append(resp.UnitBreakdown, unitIncomeJSON{Label: u.Label, Income: u.Income.String()})
	}
	for label, f := range snap.Units {
		resp.Units[label] = unitFlowJSON{Income: f.Income.String(), Expense: f.Expense.String()}
	}
	return resp
}

type adviceResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
