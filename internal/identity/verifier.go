// Package identity is the boundary to the third-party identity provider.
// The provider owns sign-in, sessions and tokens; this package only turns a
// bearer token into an authenticated identity.
package identity

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuchialin/expense-claim/internal/common"
	"github.com/yuchialin/expense-claim/internal/httpclient"
)

// Identity is the authenticated caller supplied to every operation.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verifier resolves a bearer token to an identity. Tests substitute a fake.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type Config struct {
	// BaseURL is the provider API root; the verification endpoint is
	// <BaseURL>/v1/me.
	BaseURL string
	Timeout time.Duration
}

type HTTPVerifier struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewHTTPVerifier(cfg Config, logger *slog.Logger) *HTTPVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPVerifier{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, common.ErrUnauthenticated
	}

	headers := map[string]string{"Authorization": "Bearer " + token}
	raw, status, err := httpclient.Do(ctx, v.http, http.MethodGet, v.cfg.BaseURL+"/v1/me", nil, headers, v.logger)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, common.WrapError(common.ErrUnauthenticated, "token rejected")
		}
		return nil, common.WrapError(err, "verify identity")
	}

	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, common.WrapError(err, "decode identity response")
	}
	if id.ID == "" {
		return nil, common.WrapError(common.ErrUnauthenticated, "identity response missing id")
	}
	return &id, nil
}
