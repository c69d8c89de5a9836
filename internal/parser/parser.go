// Package parser turns a free-text chat message into a validated transaction
// draft. Model output is advisory: its transaction type and category are
// coerced into the taxonomy, and its amount is checked against the amount
// found directly in the text.
package parser

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"famledger/internal/amount"
	"famledger/internal/categories"
	apperrors "famledger/internal/errors"
	"famledger/internal/inference"
	"famledger/internal/logger"
	"famledger/internal/models"
)

const maxLoggedResponse = 500

var errNoAmount = errors.New("no positive amount in model response or message")

// Config controls the model call and amount reconciliation.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// Timeout bounds a single model call. A timeout is a parse failure.
	Timeout time.Duration
	// Tolerance is the largest model/text amount difference that keeps the
	// model's value.
	Tolerance decimal.Decimal
}

// Parser extracts transactions from messages.
type Parser struct {
	gen      inference.Generator
	registry *categories.Registry
	cfg      Config
	now      func() time.Time
	log      *zap.SugaredLogger
}

// Option customizes a Parser.
type Option func(*Parser)

// WithClock overrides the clock used to stamp drafts.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// New creates a Parser.
func New(gen inference.Generator, registry *categories.Registry, cfg Config, opts ...Option) *Parser {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	p := &Parser{
		gen:      gen,
		registry: registry,
		cfg:      cfg,
		now:      time.Now,
		log:      logger.Named("parser"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse returns a draft for text. Every failure (transport, timeout,
// unreadable or incomplete model output, non-positive amount) is reported as
// ErrParseFailure; the wrapped cause is only for logs.
func (p *Parser) Parse(ctx context.Context, text string) (*models.Draft, error) {
	var (
		direct     decimal.Decimal
		haveDirect bool
		raw        string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		direct, haveDirect = amount.Extract(text)
		return nil
	})
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, p.cfg.Timeout)
		defer cancel()

		out, err := p.gen.Generate(callCtx, inference.Request{
			Model:       p.cfg.Model,
			Prompt:      buildPrompt(text, p.registry),
			Temperature: p.cfg.Temperature,
			MaxTokens:   p.cfg.MaxTokens,
			JSON:        true,
		})
		if err != nil {
			return err
		}
		raw = out
		return nil
	})
	if err := g.Wait(); err != nil {
		p.log.Warnw("inference call failed", "error", err)
		return nil, apperrors.Wrap(apperrors.ErrParseFailure, err)
	}

	pl, err := decodePayload(raw)
	if err != nil {
		p.log.Warnw("unusable model response", "error", err, "response", truncate(raw, maxLoggedResponse))
		return nil, apperrors.Wrap(apperrors.ErrParseFailure, err)
	}

	txType := models.ParseTransactionType(pl.TransactionType)
	category := p.registry.Normalize(txType, pl.Category)

	amt, ok := reconcile(pl.Amount, direct, haveDirect, p.cfg.Tolerance)
	if !ok {
		p.log.Warnw("no usable amount", "response", truncate(raw, maxLoggedResponse))
		return nil, apperrors.Wrap(apperrors.ErrParseFailure, errNoAmount)
	}

	if string(txType) != pl.TransactionType || category != pl.Category {
		p.log.Debugw("coerced model fields",
			"model_type", pl.TransactionType, "type", txType,
			"model_category", pl.Category, "category", category,
		)
	}

	return &models.Draft{
		Type:        txType,
		Amount:      amt,
		Category:    category,
		Description: pl.Description,
		CreatedAt:   p.now(),
	}, nil
}

// reconcile picks the final amount. The text-derived amount wins when the
// two disagree by more than tol or when the model's value is unreadable.
func reconcile(model *modelAmount, direct decimal.Decimal, haveDirect bool, tol decimal.Decimal) (decimal.Decimal, bool) {
	var amt decimal.Decimal
	switch {
	case !model.valid && haveDirect:
		amt = direct
	case !model.valid:
		return decimal.Zero, false
	case haveDirect && model.value.Sub(direct).Abs().GreaterThan(tol):
		amt = direct
	default:
		amt = model.value
	}

	amt = amt.Round(2)
	if !amt.IsPositive() {
		return decimal.Zero, false
	}
	return amt, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
