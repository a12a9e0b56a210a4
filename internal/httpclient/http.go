package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Do sends a request with a raw body to a full URL with optional headers and
// returns the raw response body. It does not assume any provider; callers
// decide the URL, method and headers.
func Do(ctx context.Context, client *http.Client, method, url string, body []byte, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	reqID := uuid.New().String()
	start := time.Now()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		logger.Error("httpclient.build_request_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Info("httpclient.request",
		"req_id", reqID,
		"method", method,
		"url", url,
		"content_length", len(body),
	)

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("httpclient.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func(b io.ReadCloser) {
		if cerr := b.Close(); cerr != nil {
			logger.Warn("httpclient.response_body_close_error", "req_id", reqID, "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	logger.Info("httpclient.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}

// DoJSON marshals body as JSON and sends it with a JSON content type.
func DoJSON(ctx context.Context, client *http.Client, method, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var bs []byte
	if body != nil {
		var err error
		bs, err = json.Marshal(body)
		if err != nil {
			logger.Error("httpclient.encode_error", "error", err)
			return nil, 0, fmt.Errorf("encode json: %w", err)
		}
	}
	merged := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		merged[k] = v
	}
	return Do(ctx, client, method, url, bs, merged, logger)
}
