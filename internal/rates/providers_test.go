package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestServer(t *testing.T, wantPath string, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExchangerateHost(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{name: "direct result", status: http.StatusOK, body: `{"success":true,"result":0.9213}`, want: "0.9213"},
		{name: "result without success flag", status: http.StatusOK, body: `{"result":92.5}`, want: "92.5"},
		{name: "api error", status: http.StatusOK, body: `{"success":false,"error":{"code":101}}`, wantErr: true},
		{name: "missing result", status: http.StatusOK, body: `{"success":true}`, wantErr: true},
		{name: "zero result", status: http.StatusOK, body: `{"result":0}`, wantErr: true},
		{name: "bad status", status: http.StatusBadGateway, body: `oops`, wantErr: true},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, "/convert", tt.status, tt.body)
			p := NewExchangerateHost(srv.Client(), srv.URL+"/", "")

			got, err := p.Rate(context.Background(), "USD", "EUR")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got rate %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Rate: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("rate = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExchangerateHost_SendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("from") != "USD" || q.Get("to") != "RUB" || q.Get("access_key") != "secret" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("User-Agent header not set")
		}
		_, _ = w.Write([]byte(`{"result":90}`))
	}))
	defer srv.Close()

	p := NewExchangerateHost(srv.Client(), srv.URL, "secret")
	if _, err := p.Rate(context.Background(), "USD", "RUB"); err != nil {
		t.Fatalf("Rate: %v", err)
	}
}

func TestOpenERAPI(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "nested table", body: `{"result":"success","base_code":"USD","rates":{"EUR":0.92,"RUB":91.7}}`, want: "91.7"},
		{name: "target missing", body: `{"result":"success","rates":{"EUR":0.92}}`, wantErr: true},
		{name: "api error", body: `{"result":"error","error-type":"unsupported-code"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, "/latest/USD", http.StatusOK, tt.body)
			p := NewOpenERAPI(srv.Client(), srv.URL)

			got, err := p.Rate(context.Background(), "USD", "RUB")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got rate %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Rate: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("rate = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCurrencyAPI(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "lowercase nested table", body: `{"date":"2025-03-01","btc":{"usd":84210.5,"eur":80900.1}}`, want: "84210.5"},
		{name: "source table missing", body: `{"date":"2025-03-01","eth":{"usd":2200}}`, wantErr: true},
		{name: "target missing", body: `{"date":"2025-03-01","btc":{"eur":80900.1}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, "/currencies/btc.json", http.StatusOK, tt.body)
			p := NewCurrencyAPI(srv.Client(), srv.URL)

			got, err := p.Rate(context.Background(), "BTC", "USD")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got rate %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Rate: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("rate = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFetcher_WithHTTPProviders(t *testing.T) {
	var thirdCalled bool
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"success","rates":{"EUR":0.93}}`))
	}))
	defer up.Close()
	third := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		thirdCalled = true
		_, _ = w.Write([]byte(`{"usd":{"eur":0.5}}`))
	}))
	defer third.Close()

	client := &http.Client{Timeout: time.Second}
	f, _ := newFetcher(
		NewExchangerateHost(client, down.URL, ""),
		NewOpenERAPI(client, up.URL),
		NewCurrencyAPI(client, third.URL),
	)

	rate, err := f.GetRate(context.Background(), "usd", "eur")
	if err != nil {
		t.Fatalf("GetRate: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("0.93")) {
		t.Errorf("rate = %s, want 0.93", rate)
	}
	if thirdCalled {
		t.Error("third provider should not be called after a success")
	}
}

func TestProviderErrorUnwraps(t *testing.T) {
	inner := errors.New("boom")
	err := error(&ProviderError{Provider: "x", Err: inner})
	if !errors.Is(err, inner) {
		t.Error("ProviderError must unwrap to the cause")
	}
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Provider != "x" {
		t.Errorf("errors.As failed: %v", err)
	}
}
