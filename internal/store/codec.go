package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"bumdes/internal/core"
)

// ErrMalformedDocument is returned when a mirrored document cannot be turned back into a ledger.
var ErrMalformedDocument = errors.New("malformed ledger document")

// Record is the serialized form of a transaction in the mirror document.
type Record struct {
	ID          string      `json:"id"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	UnitID      string      `json:"unitId"`
}

func ToRecord(t core.Transaction) Record {
	return Record{
		ID:          t.ID,
		Date:        t.Date.String(),
		Description: t.Description,
		Amount:      json.Number(t.Amount.String()),
		Type:        t.Type.String(),
		Category:    t.Category,
		UnitID:      t.UnitID,
	}
}

func ToRecords(txs []core.Transaction) []Record {
	out := make([]Record, len(txs))
	for i, t := range txs {
		out[i] = ToRecord(t)
	}
	return out
}

// Transaction converts the record back, validating every field.
func (r Record) Transaction() (core.Transaction, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(r.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, r.Amount)
	}
	typ, err := core.ParseTransactionType(r.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		ID:          r.ID,
		Date:        date,
		Description: r.Description,
		Amount:      amount,
		Type:        typ,
		Category:    r.Category,
		UnitID:      r.UnitID,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// Encode serializes the ledger as a JSON array, preserving order.
func Encode(txs []core.Transaction) ([]byte, error) {
	return json.Marshal(ToRecords(txs))
}

// Decode parses a document produced by Encode. Any invalid entry or
// duplicated id rejects the whole document.
func Decode(doc []byte) ([]core.Transaction, error) {
	var records []Record
	if err := json.Unmarshal(doc, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: not a list", ErrMalformedDocument)
	}

	seen := make(map[string]struct{}, len(records))
	out := make([]core.Transaction, 0, len(records))
	for i, r := range records {
		t, err := r.Transaction()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedDocument, i, err)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrMalformedDocument, t.ID)
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}
