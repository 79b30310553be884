package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bumdes/internal/core"
)

func TestEncodeUsesWireFieldNames(t *testing.T) {
	doc, err := Encode(core.SeedTransactions()[:1])
	require.NoError(t, err)

	assert.JSONEq(t, `[{"id":"t1","date":"2023-10-01","description":"Penjualan Tiket Wisata","amount":2500000,"type":"INCOME","category":"Penjualan","unitId":"u2"}]`, string(doc))
}

func TestEncodeEmptyLedger(t *testing.T) {
	doc, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(doc))
}

func TestDecodeAcceptsFractionalAmounts(t *testing.T) {
	txs, err := Decode([]byte(`[{"id":"a","date":"2023-10-01","description":"x","amount":12.75,"type":"EXPENSE","category":"Umum","unitId":"u1"}]`))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "12.75", txs[0].Amount.String())
}

func TestDecodeRejectsMissingID(t *testing.T) {
	_, err := Decode([]byte(`[{"date":"2023-10-01","description":"x","amount":1,"type":"EXPENSE","unitId":"u1"}]`))
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestDecodeRejectsOutOfRangeAmounts(t *testing.T) {
	for _, amount := range []string{`1e50000000`, `1e3`, `-5`, `1000000000000000000`, `0.0000001`} {
		t.Run(amount, func(t *testing.T) {
			doc := `[{"id":"a","date":"2023-10-01","description":"x","amount":` + amount + `,"type":"EXPENSE","category":"Umum","unitId":"u1"}]`
			_, err := Decode([]byte(doc))
			assert.ErrorIs(t, err, ErrMalformedDocument)
			assert.ErrorContains(t, err, "invalid amount")
		})
	}
}
