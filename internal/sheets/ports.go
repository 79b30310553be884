package sheets

import (
	"context"

	"bumdes/internal/core"
	"bumdes/internal/report"
)

// LedgerExporter replaces the contents of an external table with the ledger.
type LedgerExporter interface {
	Export(ctx context.Context, txs []core.Transaction, units []core.BusinessUnit) error
}

// Header is the first row of every export.
var Header = []any{"Tanggal", "Keterangan", "Unit Usaha", "Kategori", "Jenis", "Jumlah", "ID"}

// TypeLabel is the Indonesian name of a transaction type as shown in the sheet.
func TypeLabel(t core.TransactionType) string {
	if t == core.Income {
		return "Pemasukan"
	}
	return "Pengeluaran"
}

// Rows lays the ledger out as sheet rows, header first, in ledger order.
func Rows(txs []core.Transaction, units []core.BusinessUnit) [][]any {
	label := report.UnitLabeler(units)
	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, Header)
	for _, tx := range txs {
		rows = append(rows, []any{
			tx.Date.String(),
			tx.Description,
			label(tx.UnitID),
			tx.Category,
			TypeLabel(tx.Type),
			tx.Amount.InexactFloat64(),
			tx.ID,
		})
	}
	return rows
}
