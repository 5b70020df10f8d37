// Package remote implements the AuthProvider collaborator against the
// hosted authentication backend: a one-shot status endpoint plus a websocket
// stream of authentication events.
package remote

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"prepwise/config"
	"prepwise/internal/domain/service"
	"prepwise/internal/errors"

	"github.com/gorilla/websocket"
)

const (
	sessionPath = "/auth/v1/session"
	streamPath  = "/auth/v1/stream"

	statusTimeout = 10 * time.Second
)

// Provider talks to the authentication backend.
type Provider struct {
	baseURL      string
	apiKey       string
	origin       string
	callbackPath string
	httpClient   *http.Client
	dialer       *websocket.Dialer
	logger       *slog.Logger
}

// New builds a Provider from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Provider, error) {
	if cfg.Auth == nil || strings.TrimSpace(cfg.Auth.BackendURL) == "" {
		return nil, errors.New("auth backend URL is required")
	}

	return &Provider{
		baseURL:      strings.TrimRight(cfg.Auth.BackendURL, "/"),
		apiKey:       cfg.Auth.PublishableKey,
		origin:       strings.TrimRight(cfg.Auth.Origin, "/"),
		callbackPath: cfg.Auth.CallbackPath,
		httpClient:   &http.Client{Timeout: statusTimeout},
		dialer:       websocket.DefaultDialer,
		logger:       logger,
	}, nil
}

// sessionResponse is the wire shape of the one-shot status endpoint.
type sessionResponse struct {
	AccessToken string `json:"access_token"`
	User        *struct {
		ID string `json:"id"`
	} `json:"user"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"msg"`
}

// CurrentStatus implements service.AuthProvider.
func (p *Provider) CurrentStatus(ctx context.Context) (*service.AuthSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+sessionPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build status request")
	}
	req.Header.Set("apikey", p.apiKey)
	req.Header.Set("Origin", p.origin)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch auth status")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read auth status response")
	}

	var parsed sessionResponse
	if resp.StatusCode != http.StatusOK {
		// Surface the backend's message verbatim so the caller can classify
		// it by its known substrings.
		if err := json.Unmarshal(body, &parsed); err == nil {
			if parsed.ErrorDescription != "" {
				return nil, errors.New(parsed.ErrorDescription)
			}
			if parsed.Message != "" {
				return nil, errors.New(parsed.Message)
			}
		}

		return nil, errors.Errorf("auth status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "decode auth status response")
	}

	// No token means no live session; that is a valid signed-out state.
	if parsed.AccessToken == "" {
		return &service.AuthSnapshot{}, nil
	}

	identity, err := identityFromHandle(parsed.AccessToken)
	if err != nil {
		return nil, err
	}

	return &service.AuthSnapshot{
		Identity:      identity,
		SessionHandle: parsed.AccessToken,
	}, nil
}

// RedirectURL implements service.AuthProvider.
func (p *Provider) RedirectURL() string {
	return p.origin + p.callbackPath
}

// streamURL converts the backend URL into the websocket stream address.
func (p *Provider) streamURL() (string, error) {
	parsed, err := url.Parse(p.baseURL + streamPath)
	if err != nil {
		return "", errors.Wrap(err, "parse backend URL")
	}

	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	default:
		parsed.Scheme = "ws"
	}

	query := parsed.Query()
	query.Set("apikey", p.apiKey)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}
