// Package storage talks to the hosted object store holding receipt files.
// The API surface matches a Supabase-storage style REST interface: opaque
// blobs live under a bucket, addressed by key, with public and time-bounded
// signed URLs.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuchialin/expense-claim/internal/common"
	"github.com/yuchialin/expense-claim/internal/httpclient"
)

// ObjectStore is the object-store client surface consumed by the expense
// service. Tests substitute an in-memory fake.
type ObjectStore interface {
	// Upload stores content under key and returns the public URL of the object.
	Upload(ctx context.Context, key string, content []byte, contentType string, upsert bool) (string, error)
	// PublicURL derives the public URL for a key without a remote call.
	PublicURL(key string) string
	// CreateSignedURL mints a time-bounded read URL for a private object.
	CreateSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Remove deletes the object under key.
	Remove(ctx context.Context, key string) error
}

type Config struct {
	// BaseURL is the storage API root, e.g. https://<project>.supabase.co/storage/v1.
	BaseURL    string
	ServiceKey string
	Bucket     string
	Timeout    time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (c *Client) authHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.cfg.ServiceKey,
		"apikey":        c.cfg.ServiceKey,
	}
}

func (c *Client) objectURL(key string) string {
	return fmt.Sprintf("%s/object/%s/%s", c.cfg.BaseURL, c.cfg.Bucket, key)
}

func (c *Client) Upload(ctx context.Context, key string, content []byte, contentType string, upsert bool) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	headers := c.authHeaders()
	headers["Content-Type"] = contentType
	headers["x-upsert"] = fmt.Sprintf("%t", upsert)

	c.logger.Info("storage.upload.start", "bucket", c.cfg.Bucket, "key", key, "bytes", len(content))
	_, status, err := httpclient.Do(ctx, c.http, http.MethodPost, c.objectURL(key), content, headers, c.logger)
	if err != nil {
		c.logger.Error("storage.upload.failed", "bucket", c.cfg.Bucket, "key", key, "status", status, "error", err)
		return "", common.StorageErrorf("upload %s: %v", key, err)
	}
	return c.PublicURL(key), nil
}

func (c *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.cfg.BaseURL, c.cfg.Bucket, key)
}

func (c *Client) CreateSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	url := fmt.Sprintf("%s/object/sign/%s/%s", c.cfg.BaseURL, c.cfg.Bucket, key)
	body := map[string]any{"expiresIn": int(ttl.Seconds())}

	raw, status, err := httpclient.DoJSON(ctx, c.http, http.MethodPost, url, body, c.authHeaders(), c.logger)
	if err != nil {
		c.logger.Error("storage.sign.failed", "bucket", c.cfg.Bucket, "key", key, "status", status, "error", err)
		return "", common.StorageErrorf("sign %s: %v", key, err)
	}

	var out struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", common.StorageErrorf("decode sign response for %s: %v", key, err)
	}
	if out.SignedURL == "" {
		return "", common.StorageErrorf("empty signed url for %s", key)
	}
	// the API returns a path relative to the storage root
	return c.cfg.BaseURL + "/" + strings.TrimLeft(out.SignedURL, "/"), nil
}

func (c *Client) Remove(ctx context.Context, key string) error {
	_, status, err := httpclient.Do(ctx, c.http, http.MethodDelete, c.objectURL(key), nil, c.authHeaders(), c.logger)
	if err != nil {
		c.logger.Error("storage.remove.failed", "bucket", c.cfg.Bucket, "key", key, "status", status, "error", err)
		return common.StorageErrorf("remove %s: %v", key, err)
	}
	return nil
}
