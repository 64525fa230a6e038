package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/aijobhunter/jobhunter/internal/apperr"
	"github.com/aijobhunter/jobhunter/internal/model"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Identity is the subset of the provider's userinfo the service keeps.
type Identity struct {
	ID      string
	Email   string
	Profile model.Profile
}

// GoogleProvider runs the authorization-code flow against Google.
type GoogleProvider struct {
	cfg         *oauth2.Config
	userinfoURL string
	httpClient  *http.Client
}

type GoogleOption func(*GoogleProvider)

// WithEndpoint overrides the OAuth and userinfo endpoints.
func WithEndpoint(ep oauth2.Endpoint, userinfoURL string) GoogleOption {
	return func(g *GoogleProvider) {
		g.cfg.Endpoint = ep
		g.userinfoURL = userinfoURL
	}
}

func WithGoogleHTTPClient(c *http.Client) GoogleOption {
	return func(g *GoogleProvider) {
		g.httpClient = c
	}
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string, opts ...GoogleOption) *GoogleProvider {
	g := &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
		userinfoURL: googleUserinfoURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type googleUserinfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// Exchange trades the authorization code for a token and reads the userinfo.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}
	resp, err := g.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("get userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var info googleUserinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if !info.VerifiedEmail {
		return nil, apperr.Validation("google account email is not verified")
	}
	return &Identity{
		ID:    info.ID,
		Email: info.Email,
		Profile: model.Profile{
			FirstName:       info.GivenName,
			LastName:        info.FamilyName,
			DisplayName:     info.Name,
			ProfileImageURL: info.Picture,
		},
	}, nil
}
