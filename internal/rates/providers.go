package rates

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"currency-bot/internal/config"
)

// Provider names used in logs and metrics.
const (
	ProviderExchangerateHost = "exchangerate.host"
	ProviderOpenERAPI        = "open.er-api.com"
	ProviderCurrencyAPI      = "currency-api"
)

// NewProviders builds the fixed fallback chain from configuration.
func NewProviders(cfg config.ProvidersConfig) []Provider {
	client := &http.Client{Timeout: cfg.Timeout}
	return []Provider{
		NewExchangerateHost(client, cfg.ExchangerateHostURL, cfg.ExchangerateHostKey),
		NewOpenERAPI(client, cfg.OpenERAPIURL),
		NewCurrencyAPI(client, cfg.CurrencyAPIURL),
	}
}

type exchangerateHostResponse struct {
	Success *bool            `json:"success"`
	Result  *decimal.Decimal `json:"result"`
	Error   json.RawMessage  `json:"error"`
}

// NewExchangerateHost reads a direct "result" field from /convert.
func NewExchangerateHost(client *http.Client, baseURL, accessKey string) Provider {
	baseURL = strings.TrimRight(baseURL, "/")
	return &httpProvider{
		name:   ProviderExchangerateHost,
		client: client,
		buildURL: func(from, to string) string {
			q := url.Values{}
			q.Set("from", from)
			q.Set("to", to)
			if accessKey != "" {
				q.Set("access_key", accessKey)
			}
			return baseURL + "/convert?" + q.Encode()
		},
		extract: func(body []byte, _, _ string) (decimal.Decimal, error) {
			var data exchangerateHostResponse
			if err := json.Unmarshal(body, &data); err != nil {
				return decimal.Zero, fmt.Errorf("failed to decode response: %w", err)
			}
			if data.Success != nil && !*data.Success {
				return decimal.Zero, fmt.Errorf("api error: %s", strings.TrimSpace(string(data.Error)))
			}
			if data.Result == nil {
				return decimal.Zero, errNoRate
			}
			return *data.Result, nil
		},
	}
}

type openERAPIResponse struct {
	Result    string                     `json:"result"`
	ErrorType string                     `json:"error-type"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

// NewOpenERAPI reads rates[TO] from /latest/FROM.
func NewOpenERAPI(client *http.Client, baseURL string) Provider {
	baseURL = strings.TrimRight(baseURL, "/")
	return &httpProvider{
		name:   ProviderOpenERAPI,
		client: client,
		buildURL: func(from, _ string) string {
			return baseURL + "/latest/" + url.PathEscape(from)
		},
		extract: func(body []byte, _, to string) (decimal.Decimal, error) {
			var data openERAPIResponse
			if err := json.Unmarshal(body, &data); err != nil {
				return decimal.Zero, fmt.Errorf("failed to decode response: %w", err)
			}
			if data.Result != "" && data.Result != "success" {
				return decimal.Zero, fmt.Errorf("api error: %s", data.ErrorType)
			}
			rate, ok := data.Rates[to]
			if !ok {
				return decimal.Zero, fmt.Errorf("%w: %s missing", errNoRate, to)
			}
			return rate, nil
		},
	}
}

// NewCurrencyAPI reads {from: {to: rate}} keyed by lower-case codes from /currencies/from.json.
func NewCurrencyAPI(client *http.Client, baseURL string) Provider {
	baseURL = strings.TrimRight(baseURL, "/")
	return &httpProvider{
		name:   ProviderCurrencyAPI,
		client: client,
		buildURL: func(from, _ string) string {
			return baseURL + "/currencies/" + url.PathEscape(strings.ToLower(from)) + ".json"
		},
		extract: func(body []byte, from, to string) (decimal.Decimal, error) {
			var data map[string]json.RawMessage
			if err := json.Unmarshal(body, &data); err != nil {
				return decimal.Zero, fmt.Errorf("failed to decode response: %w", err)
			}
			raw, ok := data[strings.ToLower(from)]
			if !ok {
				return decimal.Zero, fmt.Errorf("%w: table %s missing", errNoRate, strings.ToLower(from))
			}
			var table map[string]decimal.Decimal
			if err := json.Unmarshal(raw, &table); err != nil {
				return decimal.Zero, fmt.Errorf("failed to decode rate table: %w", err)
			}
			rate, ok := table[strings.ToLower(to)]
			if !ok {
				return decimal.Zero, fmt.Errorf("%w: %s missing", errNoRate, strings.ToLower(to))
			}
			return rate, nil
		},
	}
}
