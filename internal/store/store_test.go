package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bumdes/internal/core"
	"bumdes/internal/log"
	"bumdes/internal/mirror/memory"
	"bumdes/internal/report"
)

type recordingNotifier struct {
	mu      sync.Mutex
	changes []Change
	err     error
}

func (n *recordingNotifier) LedgerChanged(_ context.Context, c Change) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, c)
	return n.err
}

func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(t *testing.T, m *memory.Store, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithLogger(log.Discard()), WithIDGenerator(sequentialIDs())}, opts...)
	return New(m, opts...)
}

func candidate(amount string, typ core.TransactionType, unit string) core.NewTransaction {
	return core.NewTransaction{
		Date:        core.NewDate(2023, 11, 2),
		Description: "Penjualan pupuk",
		Amount:      decimal.RequireFromString(amount),
		Type:        typ,
		Category:    "Penjualan",
		UnitID:      unit,
	}
}

func TestInitializeWithoutMirrorUsesSeedAndPersistsIt(t *testing.T) {
	m := memory.New()
	s := newTestStore(t, m)

	src := s.Initialize(context.Background())

	assert.Equal(t, SourceSeed, src)
	list := s.List()
	require.Len(t, list, 7)
	assert.Equal(t, "t1", list[0].ID)
	assert.Equal(t, 1, m.Saves())

	doc, err := m.Load(context.Background())
	require.NoError(t, err)
	decoded, err := Decode(doc)
	require.NoError(t, err)
	assert.Len(t, decoded, 7)
}

func TestInitializeMalformedMirrorFallsBackWithoutOverwriting(t *testing.T) {
	for name, doc := range map[string]string{
		"not json":      "{{{",
		"null":          "null",
		"object":        `{"id":"x"}`,
		"bad amount":    `[{"id":"a","date":"2023-10-01","description":"x","amount":"abc","type":"INCOME","category":"Umum","unitId":"u1"}]`,
		"negative":      `[{"id":"a","date":"2023-10-01","description":"x","amount":-5,"type":"INCOME","category":"Umum","unitId":"u1"}]`,
		"bad type":      `[{"id":"a","date":"2023-10-01","description":"x","amount":5,"type":"GIFT","category":"Umum","unitId":"u1"}]`,
		"bad date":      `[{"id":"a","date":"01/10/2023","description":"x","amount":5,"type":"INCOME","category":"Umum","unitId":"u1"}]`,
		"duplicate ids": `[{"id":"a","date":"2023-10-01","description":"x","amount":5,"type":"INCOME","category":"Umum","unitId":"u1"},{"id":"a","date":"2023-10-02","description":"y","amount":6,"type":"EXPENSE","category":"Umum","unitId":"u1"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			m := memory.NewWithDocument([]byte(doc))
			s := newTestStore(t, m)

			assert.Equal(t, SourceSeed, s.Initialize(context.Background()))
			assert.Len(t, s.List(), len(core.SeedTransactions()))
			assert.Equal(t, 0, m.Saves())
		})
	}
}

func TestInitializeLoadErrorFallsBack(t *testing.T) {
	m := memory.New()
	m.LoadErr = errors.New("disk on fire")
	s := newTestStore(t, m)

	assert.Equal(t, SourceSeed, s.Initialize(context.Background()))
	assert.Len(t, s.List(), 7)
}

func TestInitializeFromMirror(t *testing.T) {
	doc := `[{"id":"x1","date":"2024-01-05","description":"Sewa tenda","amount":350000,"type":"income","category":"Sewa","unitId":"u3"}]`
	s := newTestStore(t, memory.NewWithDocument([]byte(doc)))

	assert.Equal(t, SourceMirror, s.Initialize(context.Background()))
	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, core.Income, list[0].Type)
	assert.True(t, decimal.NewFromInt(350000).Equal(list[0].Amount))
}

func TestInitializeEmptyMirrorIsAnEmptyLedger(t *testing.T) {
	s := newTestStore(t, memory.NewWithDocument([]byte("[]")))

	assert.Equal(t, SourceMirror, s.Initialize(context.Background()))
	assert.Empty(t, s.List())
	assert.NotNil(t, s.List())
}

func TestAddPrependsAndMirrors(t *testing.T) {
	m := memory.New()
	n := &recordingNotifier{}
	s := newTestStore(t, m, WithNotifier(n))
	s.Initialize(context.Background())
	before := s.Revision()

	tx, err := s.Add(context.Background(), candidate("125000", core.Income, "u1"))
	require.NoError(t, err)

	assert.Equal(t, "id-1", tx.ID)
	list := s.List()
	require.Len(t, list, 8)
	assert.Equal(t, tx, list[0])
	assert.Greater(t, s.Revision(), before)
	assert.Equal(t, 2, m.Saves())

	doc, err := m.Load(context.Background())
	require.NoError(t, err)
	mirrored, err := Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, "id-1", mirrored[0].ID)

	require.Len(t, n.changes, 1)
	assert.Equal(t, log.OpCreate, n.changes[0].Op)
	assert.Equal(t, "id-1", n.changes[0].TransactionID)
	assert.Equal(t, 8, n.changes[0].Count)
}

func TestAddDefaultsCategory(t *testing.T) {
	s := newTestStore(t, memory.New())
	s.Initialize(context.Background())

	c := candidate("10", core.Expense, "u2")
	c.Category = "  "
	tx, err := s.Add(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCategory, tx.Category)
}

func TestAddRejectsInvalidCandidates(t *testing.T) {
	cases := map[string]func(*core.NewTransaction){
		"negative amount": func(n *core.NewTransaction) { n.Amount = decimal.NewFromInt(-1) },
		"empty unit":      func(n *core.NewTransaction) { n.UnitID = "" },
		"bad type":        func(n *core.NewTransaction) { n.Type = "GIFT" },
		"zero date":       func(n *core.NewTransaction) { n.Date = core.Date{} },
		"no description":  func(n *core.NewTransaction) { n.Description = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			m := memory.New()
			s := newTestStore(t, m)
			s.Initialize(context.Background())
			rev := s.Revision()

			c := candidate("100", core.Income, "u1")
			mutate(&c)
			_, err := s.Add(context.Background(), c)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTransaction)
			assert.Len(t, s.List(), 7)
			assert.Equal(t, rev, s.Revision())
			assert.Equal(t, 1, m.Saves())
		})
	}
}

func TestAddAcceptsZeroAmountAndUnknownUnit(t *testing.T) {
	s := newTestStore(t, memory.NewWithDocument([]byte("[]")))
	s.Initialize(context.Background())

	_, err := s.Add(context.Background(), candidate("0", core.Income, "u1"))
	require.NoError(t, err)
	_, err = s.Add(context.Background(), candidate("4000", core.Income, "nowhere"))
	require.NoError(t, err)

	breakdown := report.ComputeUnitBreakdown(s.List(), s.Units())
	require.Len(t, breakdown, 2)
	assert.Equal(t, core.FallbackUnitLabel, breakdown[0].Label)
	assert.True(t, decimal.NewFromInt(4000).Equal(breakdown[0].Income))
}

func TestAddSkipsTakenIDs(t *testing.T) {
	ids := []string{"t1", "t1", "fresh"}
	s := newTestStore(t, memory.New(), WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))
	s.Initialize(context.Background())

	tx, err := s.Add(context.Background(), candidate("1", core.Income, "u1"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", tx.ID)
}

func TestAddNeverReissuesRemovedIDs(t *testing.T) {
	ids := []string{"t3", "t3", "fresh"}
	s := newTestStore(t, memory.New(), WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))
	s.Initialize(context.Background())

	require.True(t, s.Remove(context.Background(), "t3"))
	tx, err := s.Add(context.Background(), candidate("1", core.Income, "u1"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", tx.ID)
	assert.Empty(t, ids)
}

func TestRemove(t *testing.T) {
	m := memory.New()
	n := &recordingNotifier{}
	s := newTestStore(t, m, WithNotifier(n))
	s.Initialize(context.Background())

	assert.True(t, s.Remove(context.Background(), "t3"))
	_, found := s.Get("t3")
	assert.False(t, found)
	list := s.List()
	require.Len(t, list, 6)
	assert.Equal(t, []string{"t1", "t2", "t4", "t5", "t6", "t7"}, ids(list))
	assert.Equal(t, 2, m.Saves())
	require.Len(t, n.changes, 1)
	assert.Equal(t, log.OpDelete, n.changes[0].Op)
}

func TestRemoveAbsentLeavesMirrorAlone(t *testing.T) {
	m := memory.New()
	n := &recordingNotifier{}
	s := newTestStore(t, m, WithNotifier(n))
	s.Initialize(context.Background())
	rev := s.Revision()

	assert.False(t, s.Remove(context.Background(), "nope"))
	assert.Len(t, s.List(), 7)
	assert.Equal(t, rev, s.Revision())
	assert.Equal(t, 1, m.Saves())
	assert.Empty(t, n.changes)
}

func TestMirrorFailureIsNotSurfaced(t *testing.T) {
	m := memory.New()
	n := &recordingNotifier{}
	s := newTestStore(t, m, WithNotifier(n))
	s.Initialize(context.Background())
	m.SaveErr = errors.New("quota exceeded")

	tx, err := s.Add(context.Background(), candidate("500", core.Expense, "u4"))
	require.NoError(t, err)
	assert.Equal(t, tx.ID, s.List()[0].ID)
	assert.True(t, s.Remove(context.Background(), tx.ID))
	assert.Empty(t, n.changes, "no notification without a successful mirror write")
}

func TestNotifierErrorIsNotSurfaced(t *testing.T) {
	n := &recordingNotifier{err: errors.New("broker down")}
	s := newTestStore(t, memory.New(), WithNotifier(n))
	s.Initialize(context.Background())

	_, err := s.Add(context.Background(), candidate("1", core.Income, "u1"))
	assert.NoError(t, err)
	assert.Len(t, n.changes, 1)
}

func TestListReturnsACopy(t *testing.T) {
	s := newTestStore(t, memory.New())
	s.Initialize(context.Background())

	list := s.List()
	list[0].Description = "changed"

	assert.Equal(t, "Penjualan Tiket Wisata", s.List()[0].Description)
}

func TestMirrorRoundTripPreservesLedger(t *testing.T) {
	m := memory.New()
	first := newTestStore(t, m)
	first.Initialize(context.Background())
	_, err := first.Add(context.Background(), candidate("1500.5", core.Income, "u2"))
	require.NoError(t, err)
	first.Remove(context.Background(), "t5")

	second := newTestStore(t, m)
	assert.Equal(t, SourceMirror, second.Initialize(context.Background()))

	want, got := first.List(), second.List()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.True(t, want[i].Date.Equal(got[i].Date), want[i].ID)
		assert.Equal(t, want[i].Description, got[i].Description)
		assert.True(t, want[i].Amount.Equal(got[i].Amount), want[i].ID)
		assert.Equal(t, want[i].Type, got[i].Type)
		assert.Equal(t, want[i].Category, got[i].Category)
		assert.Equal(t, want[i].UnitID, got[i].UnitID)
	}
}

func TestConcurrentAdds(t *testing.T) {
	s := New(memory.New(), WithLogger(log.Discard()))
	s.Initialize(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Add(context.Background(), candidate("10", core.Income, "u1"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list := s.List()
	assert.Len(t, list, 27)
	seen := map[string]bool{}
	for _, tx := range list {
		assert.False(t, seen[tx.ID], "duplicate id %s", tx.ID)
		seen[tx.ID] = true
	}
}

func ids(txs []core.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}
