package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/hit", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/")
	err := client.Send(context.Background(), Hit{
		App:       "meetups",
		URI:       "/events/7",
		IP:        "10.1.2.0",
		Timestamp: time.Date(2030, 5, 1, 18, 30, 5, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"app":       "meetups",
		"uri":       "/events/7",
		"ip":        "10.1.2.0",
		"timestamp": "2030-05-01 18:30:05",
	}, got)
}

func TestClientSendNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Send(context.Background(), Hit{App: "meetups", URI: "/events"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}
