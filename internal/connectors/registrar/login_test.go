package registrar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginParsesSessionCookie(t *testing.T) {
	expires := time.Now().Add(40 * time.Minute).Truncate(time.Second)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/login", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "user", r.PostForm.Get("username"))
		assert.Equal(t, "secret", r.PostForm.Get("password"))

		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "abc123", Expires: expires})
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	flow := NewLoginFlow(server.URL, "user", "secret", time.Second)
	sess, err := flow.Login(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "abc123", sess.Token)
	assert.WithinDuration(t, expires, sess.ExpiresAt, 2*time.Second)
	assert.False(t, sess.IssuedAt.IsZero())
}

func TestLoginAssumesDefaultTTL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Session cookie without an explicit expiry.
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "abc123"})
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	flow := NewLoginFlow(server.URL, "user", "secret", time.Second)
	sess, err := flow.Login(context.Background())
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(DefaultSessionTTL), sess.ExpiresAt, 2*time.Second)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	flow := NewLoginFlow(server.URL, "user", "wrong", time.Second)
	_, err := flow.Login(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "bad credentials")
}

func TestLoginRequiresSessionCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK) // 200 but no cookie
	}))
	defer server.Close()

	flow := NewLoginFlow(server.URL, "user", "secret", time.Second)
	_, err := flow.Login(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), SessionCookie)
}
