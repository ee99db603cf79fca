package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/echo", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "secret", r.Header.Get("X-Key"))
		require.Equal(t, "Bearer t", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/", DefaultHeaders: map[string]string{"X-Key": "secret"}})
	res, err := c.PostJSON(context.Background(), "/v1/echo", map[string]int{"amount": 1000}, map[string]string{"Authorization": "Bearer t"})
	require.NoError(t, err)
	require.True(t, res.OK())
	require.JSONEq(t, `{"amount":1000}`, string(res.Body))
}

func TestClient_PostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "42", r.PostForm.Get("RefNum"))
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	res, err := c.PostForm(context.Background(), "verify", url.Values{"RefNum": {"42"}}, nil)
	require.NoError(t, err)
	require.Equal(t, "ok", string(res.Body))
}

func TestClient_HonoursContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New(Config{BaseURL: srv.URL}).PostRaw(ctx, "", "text/plain", []byte("x"), nil)
	require.Error(t, err)
}
