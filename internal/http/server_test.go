package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bumdes/internal/advice"
	"bumdes/internal/log"
	"bumdes/internal/mirror/memory"
	"bumdes/internal/store"
)

type fakeGenerator struct {
	text string
}

func (g fakeGenerator) Generate(context.Context, string) (string, error) {
	return g.text, nil
}

func newTestServer(t *testing.T, cfg Config, advisor Advisor, initialize bool) (*Server, *store.Store) {
	t.Helper()
	st := store.New(memory.New(), store.WithLogger(log.Discard()))
	if initialize {
		st.Initialize(context.Background())
	}
	if advisor == nil {
		advisor = advice.NewAdvisor(nil, advice.WithLogger(log.Discard()))
	}
	cfg.Logger = log.Discard()
	s, err := NewServer(cfg, st, advisor)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2023, 11, 20, 15, 4, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, st
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.RemoteAddr = "203.0.113.10:4000"
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReadiness(t *testing.T) {
	s, st := newTestServer(t, Config{}, nil, false)

	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(s, http.MethodGet, "/readyz", "").Code)

	st.Initialize(context.Background())
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/readyz", "").Code)
}

func TestListUnits(t *testing.T) {
	s, _ := newTestServer(t, Config{}, nil, true)

	rr := do(s, http.MethodGet, "/api/units", "")
	require.Equal(t, http.StatusOK, rr.Code)

	units := decode[[]unitJSON](t, rr)
	require.Len(t, units, 4)
	assert.Equal(t, "u1", units[0].ID)
	assert.Equal(t, "Unit Perdagangan (Toko Desa)", units[0].Name)
}

func TestListTransactions(t *testing.T) {
	s, _ := newTestServer(t, Config{}, nil, true)

	rr := do(s, http.MethodGet, "/api/transactions", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	list := decode[listResponse](t, rr)
	require.Equal(t, 7, list.Count)
	first := list.Transactions[0]
	assert.Equal(t, "t1", first.ID)
	assert.Equal(t, "Unit Pariwisata", first.UnitName)
	assert.Equal(t, "2500000", first.Amount.String())
	assert.Equal(t, "INCOME", first.Type)
	assert.Equal(t, "2023-10-01", first.Date)
}

func TestListTransactionsFilters(t *testing.T) {
	s, _ := newTestServer(t, Config{}, nil, true)

	expenses := decode[listResponse](t, do(s, http.MethodGet, "/api/transactions?type=expense", ""))
	assert.Equal(t, 3, expenses.Count)
	for _, tx := range expenses.Transactions {
		assert.Equal(t, "EXPENSE", tx.Type)
	}

	toko := decode[listResponse](t, do(s, http.MethodGet, "/api/transactions?unit=u1", ""))
	assert.Equal(t, 3, toko.Count)

	byDate := decode[listResponse](t, do(s, http.MethodGet, "/api/transactions?sort=date", ""))
	require.NotEmpty(t, byDate.Transactions)
	assert.Equal(t, "t7", byDate.Transactions[0].ID)

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/transactions?type=refund", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/transactions?sort=amount", "").Code)
}

func TestCreateTransaction(t *testing.T) {
	s, st := newTestServer(t, Config{}, nil, true)

	rr := do(s, http.MethodPost, "/api/transactions",
		`{"date":"2023-11-02","description":"Sewa Kursi Pernikahan","amount":"Rp 150000","type":"income","unitId":"u3"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	created := decode[transactionJSON](t, rr)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "/api/transactions/"+created.ID, rr.Header().Get("Location"))
	assert.Equal(t, "Umum", created.Category)
	assert.Equal(t, "150000", created.Amount.String())
	assert.Equal(t, "Unit Jasa Sewa", created.UnitName)

	list := st.List()
	require.Len(t, list, 8)
	assert.Equal(t, created.ID, list[0].ID, "new transactions go first")

	got := decode[transactionJSON](t, do(s, http.MethodGet, "/api/transactions/"+created.ID, ""))
	assert.Equal(t, "Sewa Kursi Pernikahan", got.Description)
}

func TestCreateTransactionNumericAmountAndDefaultDate(t *testing.T) {
	s, _ := newTestServer(t, Config{}, nil, true)

	rr := do(s, http.MethodPost, "/api/transactions",
		`{"description":"Beli Air Galon","amount":12.75,"type":"EXPENSE","category":"Operasional","unitId":"u1"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	created := decode[transactionJSON](t, rr)
	assert.Equal(t, "12.75", created.Amount.String())
	assert.Equal(t, "2023-11-20", created.Date)
	assert.Equal(t, "Operasional", created.Category)
}

func TestCreateTransactionRejected(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{
			name:    "unparseable amount",
			body:    `{"date":"2023-11-02","description":"x","amount":"abc","type":"INCOME","unitId":"u1"}`,
			status:  http.StatusUnprocessableEntity,
			message: "Jumlah tidak valid",
		},
		{
			name:    "negative amount",
			body:    `{"date":"2023-11-02","description":"x","amount":-5,"type":"INCOME","unitId":"u1"}`,
			status:  http.StatusUnprocessableEntity,
			message: "Jumlah tidak valid",
		},
		{
			name:    "exponent amount",
			body:    `{"date":"2023-11-02","description":"x","amount":1e50000000,"type":"INCOME","unitId":"u1"}`,
			status:  http.StatusUnprocessableEntity,
			message: "Jumlah tidak valid",
		},
		{
			name:    "amount above eighteen integer digits",
			body:    `{"date":"2023-11-02","description":"x","amount":"10000000000000000000","type":"INCOME","unitId":"u1"}`,
			status:  http.StatusUnprocessableEntity,
			message: "Jumlah tidak valid",
		},
		{
			name:    "missing amount",
			body:    `{"date":"2023-11-02","description":"x","type":"INCOME","unitId":"u1"}`,
			status:  http.StatusUnprocessableEntity,
			message: "Jumlah tidak valid",
		},
		{
			name:    "blank description",
			body:    `{"date":"2023-11-02","description":"  ","amount":"100","type":"INCOME","unitId":"u1"}`,
			status:  http.StatusUnprocessableEntity,
			message: "Keterangan wajib diisi",
		},
		{
			name:    "unknown type",
			body:    `{"date":"2023-11-02","description":"x","amount":"100","type":"LOAN","unitId":"u1"}`,
			status:  http.StatusUnprocessableEntity,
			message: "Jenis transaksi harus INCOME atau EXPENSE",
		},
		{
			name:    "bad date",
			body:    `{"date":"02/11/2023","description":"x","amount":"100","type":"INCOME","unitId":"u1"}`,
			status:  http.StatusUnprocessableEntity,
			message: "Tanggal tidak valid",
		},
		{
			name:    "description too long",
			body:    `{"date":"2023-11-02","description":"` + strings.Repeat("x", 201) + `","amount":"100","type":"INCOME","unitId":"u1"}`,
			status:  http.StatusUnprocessableEntity,
			message: "Keterangan maksimal 200 karakter",
		},
		{
			name:    "missing unit",
			body:    `{"date":"2023-11-02","description":"x","amount":"100","type":"INCOME"}`,
			status:  http.StatusUnprocessableEntity,
			message: "Unit usaha wajib dipilih",
		},
		{
			name:   "malformed json",
			body:   `{"description":`,
			status: http.StatusBadRequest,
		},
		{
			name:   "trailing data",
			body:   `{"description":"x"} {}`,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, st := newTestServer(t, Config{}, nil, true)

			rr := do(s, http.MethodPost, "/api/transactions", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			if tt.message != "" {
				assert.Equal(t, tt.message, decode[errorResponse](t, rr).Error)
			}
			assert.Len(t, st.List(), 7, "ledger unchanged")
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	s, st := newTestServer(t, Config{}, nil, true)

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodDelete, "/api/transactions/t3", "").Code)
	assert.Len(t, st.List(), 7)

	assert.Equal(t, http.StatusNoContent, do(s, http.MethodDelete, "/api/transactions/t3?confirm=true", "").Code)
	assert.Len(t, st.List(), 6)
	_, found := st.Get("t3")
	assert.False(t, found)

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodDelete, "/api/transactions/t3?confirm=true", "").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/transactions/t3", "").Code)
}

func TestReport(t *testing.T) {
	s, _ := newTestServer(t, Config{}, nil, true)

	rr := do(s, http.MethodGet, "/api/report", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rep := decode[reportResponse](t, rr)
	assert.Equal(t, 7, rep.Count)
	assert.Equal(t, "7850000", rep.Totals.Income)
	assert.Equal(t, "2300000", rep.Totals.Expense)
	assert.Equal(t, "5550000", rep.Totals.Balance)
	assert.Equal(t, "70.7", rep.Totals.MarginPct)
	assert.Equal(t, "Rp 7.850.000", rep.Totals.IncomeFormatted)

	require.Len(t, rep.Series, 1)
	assert.Equal(t, "Okt 2023", rep.Series[0].Label)

	assert.Equal(t, []unitIncomeJSON{
		{Label: "Unit Perdagangan (Toko Desa)", Income: "4500000"},
		{Label: "Unit Pariwisata", Income: "2500000"},
		{Label: "Unit Jasa Sewa", Income: "500000"},
		{Label: "Unit Simpan Pinjam", Income: "350000"},
	}, rep.UnitBreakdown, "largest income first")

	assert.Equal(t, unitFlowJSON{Income: "2500000", Expense: "300000"}, rep.Units["Unit Pariwisata"])
}

func TestReportFollowsLedgerChanges(t *testing.T) {
	s, _ := newTestServer(t, Config{}, nil, true)

	before := decode[reportResponse](t, do(s, http.MethodGet, "/api/report", ""))

	rr := do(s, http.MethodPost, "/api/transactions",
		`{"date":"2023-11-02","description":"Tiket Rombongan","amount":"150000","type":"INCOME","unitId":"u9"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	after := decode[reportResponse](t, do(s, http.MethodGet, "/api/report", ""))
	assert.Greater(t, after.Revision, before.Revision)
	assert.Equal(t, "8000000", after.Totals.Income)
	assert.Len(t, after.Series, 2)
	assert.Equal(t, unitFlowJSON{Income: "150000", Expense: "0"}, after.Units["Lainnya"])
}

func TestEmptyLedgerReport(t *testing.T) {
	s, st := newTestServer(t, Config{}, nil, true)
	for _, tx := range st.List() {
		st.Remove(context.Background(), tx.ID)
	}

	rep := decode[reportResponse](t, do(s, http.MethodGet, "/api/report", ""))
	assert.Equal(t, 0, rep.Count)
	assert.Equal(t, "0", rep.Totals.Income)
	assert.Equal(t, "0.0", rep.Totals.MarginPct)
	assert.Empty(t, rep.Series)
	assert.Empty(t, rep.UnitBreakdown)
}

func TestAdvice(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		s, _ := newTestServer(t, Config{}, nil, true)

		rr := do(s, http.MethodPost, "/api/advice", "")
		require.Equal(t, http.StatusOK, rr.Code)
		got := decode[adviceResponse](t, rr)
		assert.Equal(t, "unconfigured", got.Status)
		assert.Equal(t, advice.MessageUnconfigured, got.Message)
	})

	t.Run("generated", func(t *testing.T) {
		adv := advice.NewAdvisor(fakeGenerator{text: "Tingkatkan promosi wisata."}, advice.WithLogger(log.Discard()))
		s, _ := newTestServer(t, Config{}, adv, true)

		got := decode[adviceResponse](t, do(s, http.MethodPost, "/api/advice", ""))
		assert.Equal(t, "ok", got.Status)
		assert.Equal(t, "Tingkatkan promosi wisata.", got.Message)
	})
}

func TestMutationsAreRateLimited(t *testing.T) {
	s, _ := newTestServer(t, Config{RateLimitPerMinute: 1}, nil, true)

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodDelete, "/api/transactions/t1", "").Code)

	rr := do(s, http.MethodDelete, "/api/transactions/t1?confirm=true", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/transactions", "").Code, "reads are not limited")
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, Config{}, nil, true)

	assert.Equal(t, http.StatusMethodNotAllowed, do(s, http.MethodPut, "/api/report", "").Code)
}
