package geo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aijobhunter/jobhunter/internal/model"
)

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *int) {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	s := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.baseURL = server.URL
	s.client = server.Client()
	return s, &calls
}

func TestPriceFor(t *testing.T) {
	if p := PriceFor("IN"); p.Currency != "INR" || p.Amount != 499 || p.Gateway != model.GatewayCashfree {
		t.Errorf("IN price = %+v", p)
	}
	if p := PriceFor("in"); p.Currency != "INR" {
		t.Errorf("lowercase in price = %+v", p)
	}
	if p := PriceFor("US"); p.Currency != "USD" || p.Gateway != model.GatewayStripe {
		t.Errorf("US price = %+v", p)
	}
	if p := PriceFor(""); p != defaultPrice {
		t.Errorf("empty price = %+v", p)
	}
}

func TestPriceForCurrency(t *testing.T) {
	tests := []struct {
		currency string
		want     float64
		ok       bool
	}{
		{"INR", 499, true},
		{"inr", 499, true},
		{"USD", 29, true},
		{"EUR", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		p, ok := PriceForCurrency(tt.currency)
		if ok != tt.ok || p.Amount != tt.want {
			t.Errorf("PriceForCurrency(%q) = %+v, %v, want %v, %v", tt.currency, p, ok, tt.want, tt.ok)
		}
	}
}

func TestLocateIndia(t *testing.T) {
	s, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/49.36.0.1/json/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"ip":"49.36.0.1","country_code":"IN","country_name":"India"}`))
	})

	loc := s.Locate(context.Background(), "49.36.0.1")
	if loc.CountryCode != "IN" || loc.CountryName != "India" {
		t.Errorf("location = %+v", loc)
	}
	if loc.Price.Currency != "INR" {
		t.Errorf("price = %+v, want INR", loc.Price)
	}
}

func TestLocatePrivateSkipsLookup(t *testing.T) {
	s, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"country_code":"IN"}`))
	})

	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.5", "::1", "not-an-ip"} {
		loc := s.Locate(context.Background(), ip)
		if loc.CountryCode != "" || loc.Price != defaultPrice {
			t.Errorf("%s: location = %+v, want default", ip, loc)
		}
	}
	if *calls != 0 {
		t.Errorf("lookups = %d, want 0", *calls)
	}
}

func TestLocateLookupFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"rate limited", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) }},
		{"error body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":true,"reason":"RateLimited"}`))
		}},
		{"garbage", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`<html>`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestService(t, tt.handler)
			loc := s.Locate(context.Background(), "8.8.8.8")
			if loc.CountryCode != "" || loc.Price != defaultPrice {
				t.Errorf("location = %+v, want default", loc)
			}
		})
	}
}
