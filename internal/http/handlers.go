package http

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"bumdes/internal/core"
	"bumdes/internal/log"
	"bumdes/internal/report"
	"bumdes/internal/store"
)

func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUnitsJSON(s.ledger.Units()))
}

// handleListTransactions supports the unit and type filters and sort=date (newest first).
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txs, rev := s.ledger.Snapshot()

	var typ core.TransactionType
	if v := q.Get("type"); v != "" {
		t, err := core.ParseTransactionType(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Jenis transaksi tidak valid")
			return
		}
		typ = t
	}
	txs = filterTransactions(txs, strings.TrimSpace(q.Get("unit")), typ)

	switch q.Get("sort") {
	case "", "ledger":
	case "date":
		sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date.Time) })
	default:
		writeError(w, http.StatusBadRequest, "Urutan tidak dikenal")
		return
	}

	unitName := report.UnitLabeler(s.ledger.Units())
	resp := listResponse{Transactions: make([]transactionJSON, len(txs)), Count: len(txs), Revision: rev}
	for i, tx := range txs {
		resp.Transactions[i] = toTransactionJSON(tx, unitName)
	}
	writeJSON(w, http.StatusOK, resp)
}

func filterTransactions(txs []core.Transaction, unitID string, typ core.TransactionType) []core.Transaction {
	if unitID == "" && typ == "" {
		return txs
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if unitID != "" && tx.UnitID != unitID {
			continue
		}
		if typ != "" && tx.Type != typ {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.ledger.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Transaksi tidak ditemukan")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(tx, report.UnitLabeler(s.ledger.Units())))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Rejected transaction body", log.FieldError, err)
		writeError(w, http.StatusBadRequest, "Format permintaan tidak valid")
		return
	}

	now := s.now()
	candidate, err := req.toNewTransaction(core.NewDate(now.Year(), int(now.Month()), now.Day()))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	tx, err := s.ledger.Add(ctx, candidate)
	if err != nil {
		if errors.Is(err, store.ErrInvalidTransaction) {
			writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Failed to record transaction", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "Gagal menyimpan transaksi")
		return
	}

	w.Header().Set("Location", "/api/transactions/"+tx.ID)
	writeJSON(w, http.StatusCreated, toTransactionJSON(tx, report.UnitLabeler(s.ledger.Units())))
}

// handleDeleteTransaction requires confirm=true, mirroring the confirmation step of the dashboard.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "Penghapusan harus dikonfirmasi dengan confirm=true")
		return
	}
	if !s.ledger.Remove(r.Context(), r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "Transaksi tidak ditemukan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	txs, rev := s.ledger.Snapshot()
	snap := s.reports.Snapshot(rev, txs, s.ledger.Units())
	writeJSON(w, http.StatusOK, toReportResponse(rev, snap))
}

// handleAdvice always answers 200; failures surface as a fallback message.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	txs, _ := s.ledger.Snapshot()
	res := s.advisor.Advise(r.Context(), txs, s.ledger.Units())
	writeJSON(w, http.StatusOK, adviceResponse{Status: string(res.Status), Message: res.Message()})
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Jumlah tidak valid"
	case errors.Is(err, core.ErrInvalidDate):
		return "Tanggal tidak valid"
	case errors.Is(err, core.ErrInvalidType):
		return "Jenis transaksi harus INCOME atau EXPENSE"
	case errors.Is(err, core.ErrEmptyDescription):
		return "Keterangan wajib diisi"
	case errors.Is(err, core.ErrLongDescription):
		return fmt.Sprintf("Keterangan maksimal %d karakter", core.MaxDescriptionLength)
	case errors.Is(err, core.ErrEmptyUnit):
		return "Unit usaha wajib dipilih"
	default:
		return "Data transaksi tidak valid"
	}
}
