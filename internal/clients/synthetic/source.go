// Package synthetic produces deterministic demo quotes for offline use.
package synthetic

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/models"
)

const Name = "synthetic"

// Source derives a stable pseudo-random quote from the symbol's characters,
// so the same symbol always prices the same.
type Source struct {
	now func() time.Time
}

// NewSource creates a synthetic quote source.
func NewSource() *Source {
	return &Source{now: func() time.Time { return time.Now().UTC() }}
}

// Name identifies the source in quotes and metrics.
func (s *Source) Name() string { return Name }

// GetQuote never fails for a non-empty symbol.
func (s *Source) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	if symbol == "" {
		return nil, models.ErrQuoteUnavailable
	}

	var seed int64
	for _, r := range symbol {
		seed += int64(r)
	}
	// linear congruential step; fraction is in [0, 1)
	fraction := decimal.NewFromInt((seed*9301 + 49297) % 233280).Div(decimal.NewFromInt(233280))

	price := decimal.NewFromInt(50).Add(fraction.Mul(decimal.NewFromInt(200))).Round(2)
	changePercent := decimal.NewFromInt(-5).Add(fraction.Mul(decimal.NewFromInt(10))).Round(2)
	change := price.Mul(changePercent).Div(decimal.NewFromInt(100)).Round(2)

	return &models.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
		PreviousClose: price.Sub(change),
		Source:        Name,
		Timestamp:     s.now(),
	}, nil
}

var _ interfaces.QuoteSource = (*Source)(nil)
