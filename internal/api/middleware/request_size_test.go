package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func readingHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestSize(t *testing.T) {
	tests := []struct {
		name     string
		maxBytes int64
		bodySize int
		want     int
	}{
		{"small body", 1024, 512, http.StatusOK},
		{"exact limit", 1024, 1024, http.StatusOK},
		{"oversized body", 1024, 2048, http.StatusRequestEntityTooLarge},
		{"public limit", DefaultMaxBodySize, int(DefaultMaxBodySize) + 1, http.StatusRequestEntityTooLarge},
		{"admin limit", AdminMaxBodySize, int(DefaultMaxBodySize) + 1, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bytes.Repeat([]byte("x"), tt.bodySize)
			req := httptest.NewRequest(http.MethodPost, "/admin/compilations", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			RequestSize(tt.maxBytes)(readingHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequestSize_NoBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()

	PublicRequestSize()(readingHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
