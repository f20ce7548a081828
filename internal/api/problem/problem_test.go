package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, res *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var body ProblemDetails
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func TestWriteDevIncludesDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/events/1", nil)
	res := httptest.NewRecorder()

	Write(res, req, http.StatusBadRequest, TypeValidation, "bad request", errors.New("boom"), "development")

	assert.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))
	body := decode(t, res)
	assert.Equal(t, "boom", body.Detail)
	assert.Equal(t, "/events/1", body.Instance)
}

func TestWriteProdSanitizesDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/events/1", nil)
	res := httptest.NewRecorder()

	Write(res, req, http.StatusInternalServerError, TypeServerError, "Server error", errors.New("pq: secret"), "production")

	assert.Equal(t, http.StatusText(http.StatusInternalServerError), decode(t, res).Detail)
}

func TestErrorMapsDomainKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
		typ    string
		detail string
	}{
		{errs.NotFound("Event with id=%d was not found", 3), http.StatusNotFound, TypeNotFound, "Event with id=3 was not found"},
		{errs.Forbidden("not yours"), http.StatusForbidden, TypeForbidden, "not yours"},
		{fmt.Errorf("submit: %w", errs.Conflict("Participant limit exceeded")), http.StatusConflict, TypeConflict, "Participant limit exceeded"},
		{errs.Validation("Field: title"), http.StatusBadRequest, TypeValidation, "Field: title"},
	}
	for _, tt := range tests {
		t.Run(tt.detail, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/users/1/requests", nil)
			res := httptest.NewRecorder()

			Error(res, req, tt.err, "production")

			assert.Equal(t, tt.status, res.Code)
			body := decode(t, res)
			assert.Equal(t, tt.typ, body.Type)
			assert.Equal(t, tt.detail, body.Detail)
		})
	}
}

func TestErrorUnknownIsServerError(t *testing.T) {
	res := httptest.NewRecorder()
	Error(res, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("connection reset"), "production")
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, TypeServerError, decode(t, res).Type)
}
