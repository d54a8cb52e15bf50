// Package pricefeed polls an external quote source for the vault asset's
// reference price and caches the latest quote for readers.
package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrNoQuote = errors.New("no price quote available yet")

// Quote is one observed price point. Price is a decimal string in the
// operator's display currency.
type Quote struct {
	Price     string    `json:"price"`
	Currency  string    `json:"currency"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Source fetches one quote.
type Source interface {
	FetchQuote(ctx context.Context) (Quote, error)
}

// HTTPSource polls a JSON endpoint shaped {"price": "...", "currency": "..."}.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *HTTPSource) FetchQuote(ctx context.Context) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("build quote request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch quote: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("quote endpoint returned status %d", resp.StatusCode)
	}

	var quote Quote
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&quote); err != nil {
		return Quote{}, fmt.Errorf("decode quote: %w", err)
	}
	quote.FetchedAt = time.Now()
	return quote, nil
}

// Tracker polls the source on a fixed interval. A failed poll keeps the last
// good quote; readers always see the freshest successful observation.
type Tracker struct {
	source   Source
	interval time.Duration
	logger   *zap.Logger

	mu   sync.RWMutex
	last *Quote

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func NewTracker(source Source, interval time.Duration, logger *zap.Logger) *Tracker {
	return &Tracker{
		source:   source,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins polling. The first poll runs immediately; Start returns once
// the loop is running.
func (t *Tracker) Start(ctx context.Context) {
	go func() {
		defer close(t.done)

		t.poll(ctx)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.stopCh:
				return
			case <-ticker.C:
				t.poll(ctx)
			}
		}
	}()
}

// Stop halts polling and waits for the loop to exit. Safe to call more than
// once.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
	<-t.done
}

// Latest returns the most recent quote, or ErrNoQuote before the first
// successful poll.
func (t *Tracker) Latest() (Quote, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.last == nil {
		return Quote{}, ErrNoQuote
	}
	return *t.last, nil
}

func (t *Tracker) poll(ctx context.Context) {
	quote, err := t.source.FetchQuote(ctx)
	if err != nil {
		t.logger.Warn("price poll failed", zap.Error(err))
		return
	}

	t.mu.Lock()
	t.last = &quote
	t.mu.Unlock()
	t.logger.Debug("price updated", zap.String("price", quote.Price))
}
