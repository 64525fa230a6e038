// Package geo maps a client address to a country and the price shown there.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aijobhunter/jobhunter/internal/model"
)

// Price is the pro plan offer for a country.
type Price struct {
	Amount   float64       `json:"amount"`
	Currency string        `json:"currency"`
	Gateway  model.Gateway `json:"gateway"`
}

var (
	defaultPrice = Price{Amount: 29, Currency: "USD", Gateway: model.GatewayStripe}
	prices       = map[string]Price{
		"IN": {Amount: 499, Currency: "INR", Gateway: model.GatewayCashfree},
	}
)

// PriceFor returns the offer for an ISO country code.
func PriceFor(countryCode string) Price {
	if p, ok := prices[strings.ToUpper(countryCode)]; ok {
		return p
	}
	return defaultPrice
}

// PriceForCurrency returns the offer billed in currency, if there is one.
func PriceForCurrency(currency string) (Price, bool) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if defaultPrice.Currency == currency {
		return defaultPrice, true
	}
	for _, p := range prices {
		if p.Currency == currency {
			return p, true
		}
	}
	return Price{}, false
}

// Location is the response of GET /api/user-location.
type Location struct {
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	Price       Price  `json:"price"`
}

type Service struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	return &Service{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: "https://ipapi.co",
		logger:  logger.With("component", "geo"),
	}
}

type ipapiResponse struct {
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
}

// Locate resolves ip to a country and price. Private addresses and lookup
// failures yield the default price with no country.
func (s *Service) Locate(ctx context.Context, ip string) Location {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast() {
		return Location{Price: defaultPrice}
	}

	info, err := s.lookup(ctx, parsed.String())
	if err != nil {
		s.logger.Warn("ip lookup failed", "error", err)
		return Location{Price: defaultPrice}
	}
	return Location{
		CountryCode: info.CountryCode,
		CountryName: info.CountryName,
		Price:       PriceFor(info.CountryCode),
	}
}

func (s *Service) lookup(ctx context.Context, ip string) (*ipapiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", s.baseURL, ip), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "ai-jobhunter/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipapi returned status %d", resp.StatusCode)
	}

	var info ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode ipapi response: %w", err)
	}
	if info.Error {
		return nil, fmt.Errorf("ipapi error: %s", info.Reason)
	}
	return &info, nil
}
