// Package quote resolves live prices over an ordered chain of sources with
// caching and rate-limit cool-downs.
package quote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/metrics"
	"github.com/bobmcallan/papertrade/internal/models"
)

// Service implements QuoteProvider. Sources are tried in order; the first
// positive price wins.
type Service struct {
	sources  []interfaces.QuoteSource
	cache    *ristretto.Cache
	cacheTTL time.Duration
	timeout  time.Duration
	cooldown time.Duration
	logger   *common.Logger
	now      func() time.Time // injectable clock for testing

	mu      sync.Mutex
	cooling map[string]time.Time // source name -> skip until
}

// NewService creates a quote service over sources.
func NewService(sources []interfaces.QuoteSource, config common.QuotesConfig, logger *common.Logger) (*Service, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1e4,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quote cache: %w", err)
	}
	return &Service{
		sources:  sources,
		cache:    cache,
		cacheTTL: config.GetCacheTTL(),
		timeout:  config.GetTimeout(),
		cooldown: config.GetCooldown(),
		logger:   logger,
		now:      time.Now,
		cooling:  make(map[string]time.Time),
	}, nil
}

// GetQuote returns a cached or freshly fetched quote. Every failure surfaces
// as models.ErrQuoteUnavailable.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", models.ErrQuoteUnavailable)
	}

	if v, ok := s.cache.Get(symbol); ok {
		q := *v.(*models.Quote)
		metrics.QuoteRequests.WithLabelValues(q.Source, "cache_hit").Inc()
		return &q, nil
	}

	for _, src := range s.sources {
		if ctx.Err() != nil {
			break
		}
		name := src.Name()
		if s.coolingDown(name) {
			metrics.QuoteRequests.WithLabelValues(name, "skipped").Inc()
			continue
		}

		start := time.Now()
		q, err := s.fetch(ctx, src, symbol)
		metrics.QuoteDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

		if err == nil && q != nil && q.Price.IsPositive() {
			if q.Source == "" {
				q.Source = name
			}
			cached := *q
			s.cache.SetWithTTL(symbol, &cached, 1, s.cacheTTL)
			s.cache.Wait()
			metrics.QuoteRequests.WithLabelValues(name, "ok").Inc()
			return q, nil
		}

		switch {
		case errors.Is(err, models.ErrRateLimited):
			s.coolDown(name)
			metrics.QuoteRequests.WithLabelValues(name, "rate_limited").Inc()
			s.logger.Warn().Str("source", name).Dur("cooldown", s.cooldown).Msg("Quote source rate limited")
		default:
			metrics.QuoteRequests.WithLabelValues(name, "error").Inc()
			s.logger.Debug().Err(err).Str("source", name).Str("symbol", symbol).Msg("Quote source failed")
		}
	}

	return nil, fmt.Errorf("%w: %s", models.ErrQuoteUnavailable, symbol)
}

// fetch bounds a single source call by the configured timeout.
func (s *Service) fetch(ctx context.Context, src interfaces.QuoteSource, symbol string) (*models.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return src.GetQuote(ctx, symbol)
}

func (s *Service) coolingDown(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.cooling[name]
	if !ok {
		return false
	}
	if s.now().After(until) {
		delete(s.cooling, name)
		return false
	}
	return true
}

func (s *Service) coolDown(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooling[name] = s.now().Add(s.cooldown)
}

// Close releases the cache.
func (s *Service) Close() {
	s.cache.Close()
}

// Ensure Service implements QuoteProvider
var _ interfaces.QuoteProvider = (*Service)(nil)
