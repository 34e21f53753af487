// Package app wires configuration, storage, locking, quote sources and the
// ledger services into one unit shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bobmcallan/papertrade/internal/clients/alphavantage"
	"github.com/bobmcallan/papertrade/internal/clients/finnhub"
	"github.com/bobmcallan/papertrade/internal/clients/synthetic"
	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/services/admin"
	"github.com/bobmcallan/papertrade/internal/services/funding"
	"github.com/bobmcallan/papertrade/internal/services/portfolio"
	"github.com/bobmcallan/papertrade/internal/services/quote"
	"github.com/bobmcallan/papertrade/internal/services/trade"
	"github.com/bobmcallan/papertrade/internal/services/wallet"
	"github.com/bobmcallan/papertrade/internal/storage"
)

// App holds all initialized services and their dependencies.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	Locker           interfaces.Locker
	Quotes           *quote.Service
	WalletService    interfaces.WalletService
	PortfolioService interfaces.PortfolioService
	TradeService     interfaces.TradeService
	FundingService   interfaces.FundingService
	AdminService     interfaces.AdminService
	StartupTime      time.Time

	redis           *redis.Client
	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the explicit path, then
// PAPERTRADE_CONFIG, then papertrade.toml beside the binary, then config/.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("PAPERTRADE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "papertrade.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/papertrade.toml"
		}
	}
	return configPath
}

// NewApp loads configuration from configPath and builds the App.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative badger path to binary directory
	if p := config.Storage.Badger.Path; p != "" && !filepath.IsAbs(p) {
		config.Storage.Badger.Path = filepath.Join(getBinaryDir(), p)
	}

	return NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging))
}

// NewAppWithConfig builds the App from an already loaded configuration.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()
	ctx := context.Background()

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		StartupTime: startupStart,
	}

	if err := a.initLocker(ctx); err != nil {
		a.Close()
		return nil, err
	}

	quotes, err := quote.NewService(quoteSources(config.Quotes, logger), config.Quotes, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize quote service: %w", err)
	}
	a.Quotes = quotes

	walletService := wallet.NewService(storageManager, a.Locker, config.Wallet.AdjustmentPolicy, logger)
	portfolioService := portfolio.NewService(storageManager, quotes, a.Locker, logger)
	a.WalletService = walletService
	a.PortfolioService = portfolioService
	a.TradeService = trade.NewService(storageManager, walletService, portfolioService, quotes, a.Locker, logger)
	a.FundingService = funding.NewService(storageManager, walletService, a.Locker, logger)
	a.AdminService = admin.NewService(storageManager, walletService, logger)

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

func (a *App) initLocker(ctx context.Context) error {
	if a.Config.Locking.Backend != common.LockRedis {
		a.Locker = common.NewLocalLocker()
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := common.NewRedisClient(pingCtx, a.Config.Locking.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize locker: %w", err)
	}
	a.redis = client
	a.Locker = common.NewRedisLocker(client, a.Config.Locking.GetTTL(), a.Logger)
	a.Logger.Info().Str("address", a.Config.Locking.Redis.Address).Msg("Using redis user locks")
	return nil
}

// quoteSources builds the provider chain in priority order. Providers
// without an API key are left out.
func quoteSources(cfg common.QuotesConfig, logger *common.Logger) []interfaces.QuoteSource {
	var sources []interfaces.QuoteSource
	if cfg.Finnhub.APIKey != "" {
		sources = append(sources, finnhub.NewClient(cfg.Finnhub.APIKey,
			finnhub.WithBaseURL(cfg.Finnhub.BaseURL),
			finnhub.WithLogger(logger),
			finnhub.WithRateLimit(cfg.Finnhub.RateLimit),
			finnhub.WithTimeout(cfg.GetTimeout()),
		))
	} else {
		logger.Warn().Msg("Finnhub API key not configured - skipping provider")
	}
	if cfg.AlphaVantage.APIKey != "" {
		sources = append(sources, alphavantage.NewClient(cfg.AlphaVantage.APIKey,
			alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL),
			alphavantage.WithLogger(logger),
			alphavantage.WithRateLimit(cfg.AlphaVantage.RateLimit),
			alphavantage.WithTimeout(cfg.GetTimeout()),
		))
	}
	if cfg.Synthetic {
		sources = append(sources, synthetic.NewSource())
	}
	if len(sources) == 0 {
		logger.Warn().Msg("No quote sources configured - trades need explicit or stored prices")
	}
	return sources
}

// Close releases all resources held by the App.
// Shutdown order: cancel scheduler, close quotes, close redis, close storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.Quotes != nil {
		a.Quotes.Close()
		a.Quotes = nil
	}
	if a.redis != nil {
		a.redis.Close()
		a.redis = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

// StartPriceScheduler launches the background stored-price refresh when
// quotes.refresh_interval is set.
func (a *App) StartPriceScheduler() {
	interval := a.Config.Quotes.GetRefreshInterval()
	if interval <= 0 {
		return
	}
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	a.schedulerCancel = schedulerCancel
	go startPriceScheduler(schedulerCtx, a.PortfolioService, a.Storage, a.Logger, interval)
}
