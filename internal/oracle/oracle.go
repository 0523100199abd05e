package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Oracle supplies fiat conversion rates for display. The transfer engine's
// fee math never depends on it.
type Oracle interface {
	Price(ctx context.Context, symbol, fiat string) (decimal.Decimal, error)
}

// HTTPOracle queries a simple-price JSON endpoint and caches answers for a
// short TTL so repeated renders don't hammer the upstream.
type HTTPOracle struct {
	baseURL string
	client  *http.Client
	ttl     time.Duration

	mu    sync.Mutex
	cache map[string]cachedPrice
}

type cachedPrice struct {
	price decimal.Decimal
	at    time.Time
}

func NewHTTPOracle(baseURL string) *HTTPOracle {
	return &HTTPOracle{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
		ttl:     30 * time.Second,
		cache:   make(map[string]cachedPrice),
	}
}

// Price returns the fiat price of one native unit of symbol.
func (o *HTTPOracle) Price(ctx context.Context, symbol, fiat string) (decimal.Decimal, error) {
	key := strings.ToUpper(symbol) + "/" + strings.ToUpper(fiat)

	o.mu.Lock()
	if c, ok := o.cache[key]; ok && time.Since(c.at) < o.ttl {
		o.mu.Unlock()
		return c.price, nil
	}
	o.mu.Unlock()

	endpoint := fmt.Sprintf("%s/price?symbol=%s&fiat=%s",
		o.baseURL, url.QueryEscape(symbol), url.QueryEscape(fiat))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price lookup: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Price decimal.Decimal `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Zero, fmt.Errorf("price lookup: decode: %w", err)
	}

	o.mu.Lock()
	o.cache[key] = cachedPrice{price: out.Price, at: time.Now()}
	o.mu.Unlock()

	return out.Price, nil
}
