package interfaces

import (
	"context"

	"github.com/bobmcallan/papertrade/internal/models"
)

// QuoteSource is one market data provider in the quote chain.
type QuoteSource interface {
	Name() string
	// GetQuote returns models.ErrRateLimited when the provider throttles us.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}
