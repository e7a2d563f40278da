package rates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
)

const (
	userAgent   = "currency-bot/1.0 (+https://core.telegram.org/bots)"
	maxBodySize = 1 << 20
)

var (
	// ErrRateNotFound means every provider failed for the pair.
	ErrRateNotFound = errors.New("exchange rate not found")

	errNoRate = errors.New("no rate in response")
)

// Provider fetches a single rate from one external API.
type Provider interface {
	Name() string
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// ProviderError wraps a failure of one provider; the fetcher logs it and moves on.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// httpProvider is a GET-and-decode provider; only the URL and response shape differ.
type httpProvider struct {
	name     string
	client   *http.Client
	buildURL func(from, to string) string
	extract  func(body []byte, from, to string) (decimal.Decimal, error)
}

func (p *httpProvider) Name() string {
	return p.name
}

func (p *httpProvider) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.buildURL(from, to), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read response: %w", err)
	}

	rate, err := p.extract(body, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive rate %s", errNoRate, rate)
	}
	return rate, nil
}
