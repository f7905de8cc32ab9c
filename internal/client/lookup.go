package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"asindir/client/internal/asin"
	"asindir/client/internal/config"
	"asindir/client/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// ProductLookup fetches a single product page and extracts its details.
type ProductLookup interface {
	LookupProduct(ctx context.Context, asinValue string) (*domain.ProductDetails, error)
}

type productLookup struct {
	rl         ratelimit.Limiter
	httpClient *resty.Client
	parser     *productPageParser
	now        func() time.Time

	// Circuit breaker for robot-check pages
	circuitBreakerMutex sync.RWMutex
	blockedUntil        time.Time
	circuitBreakerDelay time.Duration
}

func NewProductLookup(cfg config.LookupConfig) ProductLookup {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(0).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5")

	return &productLookup{
		rl:                  ratelimit.New(1),
		httpClient:          client,
		parser:              newProductPageParser(cfg.BaseURL),
		now:                 time.Now,
		circuitBreakerDelay: 15 * time.Minute,
	}
}

func (l *productLookup) LookupProduct(ctx context.Context, asinValue string) (*domain.ProductDetails, error) {
	normalized, ok := asin.Normalize(asinValue)
	if !ok {
		return nil, fmt.Errorf("%q: %s", asinValue, asin.ReasonInvalidFormat)
	}

	if remaining := l.remainingBlockedTime(); remaining > 0 {
		return nil, fmt.Errorf("lookups paused after a robot check, %v remaining", remaining.Round(time.Second))
	}

	l.rl.Take()

	url := l.parser.productURL(normalized)
	resp, err := l.httpClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	html := resp.String()
	if isBlocked(html) {
		l.triggerCircuitBreaker()
		return nil, fmt.Errorf("robot check served for %s - lookups paused for %v", normalized, l.circuitBreakerDelay)
	}

	details, err := l.parser.ParseProductPage(html, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product page: %w", err)
	}
	details.FetchedAt = l.now()

	return details, nil
}

func (l *productLookup) triggerCircuitBreaker() {
	l.circuitBreakerMutex.Lock()
	defer l.circuitBreakerMutex.Unlock()

	l.blockedUntil = l.now().Add(l.circuitBreakerDelay)
	log.Warnf("🚫 Circuit breaker activated! Lookups disabled until %v", l.blockedUntil.Format("15:04:05"))
}

func (l *productLookup) remainingBlockedTime() time.Duration {
	l.circuitBreakerMutex.RLock()
	defer l.circuitBreakerMutex.RUnlock()

	if l.blockedUntil.IsZero() {
		return 0
	}
	remaining := l.blockedUntil.Sub(l.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
