package app

import (
	"context"
	"time"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
)

// startPriceScheduler refreshes every account's stored holding prices on a
// fixed interval so views without live quotes stay current.
func startPriceScheduler(ctx context.Context, portfolioService interfaces.PortfolioService, storage interfaces.StorageManager, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("Price scheduler: started")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Price scheduler: stopped")
			return
		case <-ticker.C:
			refreshPrices(ctx, portfolioService, storage, logger)
		}
	}
}

// refreshPrices walks the wallet list, since every account with holdings
// has a wallet. Returns the number of holdings updated.
func refreshPrices(ctx context.Context, portfolioService interfaces.PortfolioService, storage interfaces.StorageManager, logger *common.Logger) int {
	start := time.Now()

	wallets, err := storage.WalletStore().ListWallets(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Price refresh: failed to list wallets")
		return 0
	}

	updated := 0
	for _, w := range wallets {
		if ctx.Err() != nil {
			break
		}
		n, err := portfolioService.RefreshPrices(ctx, w.UserID)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", w.UserID).Msg("Price refresh: user failed")
			continue
		}
		updated += n
	}

	logger.Info().
		Int("users", len(wallets)).
		Int("holdings", updated).
		Dur("elapsed", time.Since(start)).
		Msg("Price refresh: complete")
	return updated
}
