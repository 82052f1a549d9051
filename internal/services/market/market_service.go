package market

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
)

var ErrNoPrices = errors.New("no market prices available")

// Fetcher returns raw average prices keyed by template id.
type Fetcher interface {
	FetchPrices(ctx context.Context) (map[string]float64, error)
}

// Cache persists the last good feed.
type Cache interface {
	Save(ctx context.Context, prices map[string]int) error
	Load(ctx context.Context) (map[string]int, error)
}

// StaticFeed serves a fixed set of prices, used when no pricing backend is configured.
type StaticFeed map[string]float64

func (f StaticFeed) FetchPrices(ctx context.Context) (map[string]float64, error) {
	out := make(map[string]float64, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out, nil
}

// MarketService holds the average flea market price of every template it knows about.
type MarketService struct {
	fetcher Fetcher
	cache   Cache
	log     logrus.FieldLogger

	mu     sync.RWMutex
	prices map[string]int
}

// NewMarketService builds the service. cache may be nil.
func NewMarketService(fetcher Fetcher, cache Cache, log logrus.FieldLogger) *MarketService {
	return &MarketService{
		fetcher: fetcher,
		cache:   cache,
		log:     log,
		prices:  make(map[string]int),
	}
}

// Refresh replaces the known prices with a fresh feed. When the feed cannot be
// fetched the cached copy is used instead, and the current prices are kept if
// there is none.
func (s *MarketService) Refresh(ctx context.Context) error {
	raw, err := s.fetcher.FetchPrices(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Failed to fetch market prices")
		return s.restore(ctx, err)
	}

	prices := make(map[string]int, len(raw))
	for tpl, p := range raw {
		prices[tpl] = int(math.Round(p))
	}
	s.replace(prices)

	if s.cache != nil {
		if err := s.cache.Save(ctx, prices); err != nil {
			s.log.WithError(err).Warn("Failed to cache market prices")
		}
	}

	s.log.Debugf("Loaded %d market prices", len(prices))
	return nil
}

func (s *MarketService) restore(ctx context.Context, cause error) error {
	if s.cache == nil {
		return cause
	}

	cached, err := s.cache.Load(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Failed to load cached market prices")
		return cause
	}
	if len(cached) == 0 {
		return errors.Join(cause, ErrNoPrices)
	}

	s.replace(cached)
	s.log.Infof("Using %d cached market prices", len(cached))
	return nil
}

func (s *MarketService) replace(prices map[string]int) {
	s.mu.Lock()
	s.prices = prices
	s.mu.Unlock()
}

func (s *MarketService) PriceFor(tpl string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[tpl]
	return p, ok
}

// Set overrides a single price until the next refresh.
func (s *MarketService) Set(tpl string, price int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[tpl] = price
}

func (s *MarketService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prices)
}
