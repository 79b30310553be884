// Package advice asks an external text generation service for a short
// financial analysis of the ledger and turns every outcome into a typed result.
package advice

import (
	"context"
	"errors"
	"strings"
	"time"

	"bumdes/internal/core"
	"bumdes/internal/log"
	"bumdes/internal/metrics"
	"bumdes/internal/report"
)

// Fallback texts shown instead of an analysis.
const (
	MessageUnconfigured = "API Key tidak ditemukan. Mohon konfigurasi API Key untuk menggunakan fitur AI."
	MessageEmpty        = "Maaf, tidak dapat menghasilkan analisis saat ini."
	MessageUnavailable  = "Terjadi kesalahan saat menghubungi layanan AI. Silakan coba lagi nanti."
)

var ErrUnconfigured = errors.New("advice: no API key configured")

type Status string

const (
	StatusOK           Status = "ok"
	StatusUnconfigured Status = "unconfigured"
	StatusUnavailable  Status = "unavailable"
	StatusEmpty        Status = "empty"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is the outcome of one advice request. Err is nil for StatusOK and StatusEmpty.
type Result struct {
	Status Status
	Text   string
	Err    error
}

// Message returns the analysis, or the fallback text matching the status.
func (r Result) Message() string {
	switch r.Status {
	case StatusOK:
		return r.Text
	case StatusUnconfigured:
		return MessageUnconfigured
	case StatusEmpty:
		return MessageEmpty
	default:
		return MessageUnavailable
	}
}

type Advisor struct {
	gen     Generator
	timeout time.Duration
	logger  *log.Logger
}

type Option func(*Advisor)

// WithTimeout bounds a single round trip. Zero leaves the caller's deadline alone.
func WithTimeout(d time.Duration) Option {
	return func(a *Advisor) { a.timeout = d }
}

func WithLogger(l *log.Logger) Option {
	return func(a *Advisor) { a.logger = l.WithComponent(log.ComponentAdvice) }
}

// NewAdvisor wraps gen. A nil generator means no credential is configured
// and every request resolves to StatusUnconfigured without a network call.
func NewAdvisor(gen Generator, opts ...Option) *Advisor {
	a := &Advisor{gen: gen, logger: log.Default().WithComponent(log.ComponentAdvice)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Advisor) Configured() bool {
	return a != nil && a.gen != nil
}

// Advise summarizes the ledger per unit and requests an analysis. It never
// returns an error; failures are folded into the result status.
func (a *Advisor) Advise(ctx context.Context, txs []core.Transaction, units []core.BusinessUnit) Result {
	res := a.advise(ctx, txs, units)
	metrics.AdviceRequests.WithLabelValues(string(res.Status)).Inc()
	return res
}

func (a *Advisor) advise(ctx context.Context, txs []core.Transaction, units []core.BusinessUnit) Result {
	if !a.Configured() {
		a.logger.WarnContext(ctx, "Advice requested without an API key",
			log.FieldOperation, log.OpAdvise, log.FieldAdviceState, StatusUnconfigured)
		return Result{Status: StatusUnconfigured, Err: ErrUnconfigured}
	}

	prompt, err := BuildPrompt(report.SummarizeByUnit(txs, units))
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to build advice prompt",
			log.FieldError, err, log.FieldOperation, log.OpAdvise, log.FieldAdviceState, StatusUnavailable)
		return Result{Status: StatusUnavailable, Err: err}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := a.gen.Generate(ctx, prompt)
	metrics.AdviceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		a.logger.ErrorContext(ctx, "Advice request failed",
			log.FieldError, err, log.FieldOperation, log.OpAdvise, log.FieldAdviceState, StatusUnavailable)
		return Result{Status: StatusUnavailable, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		a.logger.WarnContext(ctx, "Advice service returned no text",
			log.FieldOperation, log.OpAdvise, log.FieldAdviceState, StatusEmpty)
		return Result{Status: StatusEmpty}
	}

	a.logger.InfoContext(ctx, "Advice received",
		log.FieldOperation, log.OpAdvise, log.FieldAdviceState, StatusOK,
		log.FieldCount, len(txs), "chars", len(text), "duration", time.Since(start))
	return Result{Status: StatusOK, Text: text}
}

// AdviseAsync runs Advise in its own goroutine. The returned channel
// receives exactly one result and is then closed.
func (a *Advisor) AdviseAsync(ctx context.Context, txs []core.Transaction, units []core.BusinessUnit) <-chan Result {
	out := make(chan Result, 1)
	txs = append([]core.Transaction(nil), txs...)
	units = append([]core.BusinessUnit(nil), units...)
	go func() {
		defer close(out)
		out <- a.Advise(ctx, txs, units)
	}()
	return out
}

// GetAdvice returns display text for the ledger, never an error.
func (a *Advisor) GetAdvice(ctx context.Context, txs []core.Transaction, units []core.BusinessUnit) string {
	return a.Advise(ctx, txs, units).Message()
}
