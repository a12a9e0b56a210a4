package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuchialin/expense-claim/internal/common"
)

func TestVerifyReturnsIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/me", r.URL.Path)
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"user_abc","email":"mei@example.com"}`))
	}))
	defer srv.Close()

	v := NewHTTPVerifier(Config{BaseURL: srv.URL}, nil)
	id, err := v.Verify(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Equal(t, "user_abc", id.ID)
	assert.Equal(t, "mei@example.com", id.Email)
}

func TestVerifyRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	v := NewHTTPVerifier(Config{BaseURL: srv.URL}, nil)
	_, err := v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestVerifyEmptyToken(t *testing.T) {
	v := NewHTTPVerifier(Config{BaseURL: "http://localhost:0"}, nil)
	_, err := v.Verify(context.Background(), "  ")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestIdentityContextRoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), &Identity{ID: "user_1"})
	got := FromContext(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "user_1", got.ID)

	assert.Nil(t, FromContext(context.Background()))
}
