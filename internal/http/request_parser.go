package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"bumdes/internal/core"
)

const maxBodyBytes = 64 << 10

var errMalformedBody = errors.New("malformed request body")

// createTransactionRequest accepts the amount either as a JSON number or as typed text.
type createTransactionRequest struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	UnitID      string          `json:"unitId"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errMalformedBody, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errMalformedBody)
	}
	return nil
}

// toNewTransaction converts the request; an empty date means today.
func (req createTransactionRequest) toNewTransaction(today core.Date) (core.NewTransaction, error) {
	date := today
	if strings.TrimSpace(req.Date) != "" {
		d, err := core.ParseDate(req.Date)
		if err != nil {
			return core.NewTransaction{}, err
		}
		date = d
	}

	amount, err := parseAmountJSON(req.Amount)
	if err != nil {
		return core.NewTransaction{}, err
	}

	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.NewTransaction{}, err
	}

	return core.NewTransaction{
		Date:        date,
		Description: req.Description,
		Amount:      amount,
		Type:        typ,
		Category:    req.Category,
		UnitID:      req.UnitID,
	}, nil
}

func parseAmountJSON(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, core.ErrInvalidAmount
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, core.ErrInvalidAmount
		}
		return core.ParseAmount(s)
	}
	// A JSON number follows the same grammar as typed text: no sign, no exponent.
	return core.ParseAmount(string(raw))
}
