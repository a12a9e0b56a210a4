package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuchialin/expense-claim/internal/common"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:    srv.URL,
		ServiceKey: "service-key",
		Bucket:     "receipts",
		Timeout:    5 * time.Second,
	}, nil)
}

func TestUploadReturnsPublicURL(t *testing.T) {
	var gotPath, gotAuth, gotUpsert, gotContentType string
	var gotBody []byte

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotUpsert = r.Header.Get("x-upsert")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"Key":"receipts/user_1/a.png"}`))
	})

	url, err := c.Upload(context.Background(), "user_1/a.png", []byte("img-bytes"), "image/png", false)
	require.NoError(t, err)

	assert.Equal(t, "/object/receipts/user_1/a.png", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "false", gotUpsert)
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, []byte("img-bytes"), gotBody)
	assert.Equal(t, c.cfg.BaseURL+"/object/public/receipts/user_1/a.png", url)
}

func TestUploadFailureIsStorageError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bucket not found"}`, http.StatusNotFound)
	})

	_, err := c.Upload(context.Background(), "user_1/a.png", []byte("x"), "image/png", false)
	assert.ErrorIs(t, err, common.ErrStorage)
}

func TestCreateSignedURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/object/sign/receipts/user_1/a.png", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"expiresIn":3600}`, string(body))
		_, _ = w.Write([]byte(`{"signedURL":"/object/sign/receipts/user_1/a.png?token=tok123"}`))
	})

	signed, err := c.CreateSignedURL(context.Background(), "user_1/a.png", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, c.cfg.BaseURL+"/object/sign/receipts/user_1/a.png?token=tok123", signed)
}

func TestCreateSignedURLEmptyResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.CreateSignedURL(context.Background(), "user_1/a.png", time.Hour)
	assert.ErrorIs(t, err, common.ErrStorage)
}

func TestRemove(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.Remove(context.Background(), "user_1/a.png"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/object/receipts/user_1/a.png", gotPath)
}

func TestRemoveFailureIsStorageError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	assert.ErrorIs(t, c.Remove(context.Background(), "user_1/a.png"), common.ErrStorage)
}
