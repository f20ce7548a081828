// Package problem writes RFC 7807 problem responses.
package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

const (
	TypeNotFound     = "https://meetups.togather.foundation/problems/not-found"
	TypeForbidden    = "https://meetups.togather.foundation/problems/forbidden"
	TypeConflict     = "https://meetups.togather.foundation/problems/conflict"
	TypeValidation   = "https://meetups.togather.foundation/problems/validation-error"
	TypeUnauthorized = "https://meetups.togather.foundation/problems/unauthorized"
	TypeRateLimited  = "https://meetups.togather.foundation/problems/rate-limited"
	TypeServerError  = "https://meetups.togather.foundation/problems/server-error"
)

type ProblemDetails struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Errors   map[string]any `json:"errors,omitempty"`
}

type Option func(*ProblemDetails)

func WithDetail(detail string) Option {
	return func(p *ProblemDetails) {
		p.Detail = detail
	}
}

func WithInstance(instance string) Option {
	return func(p *ProblemDetails) {
		p.Instance = instance
	}
}

func WithErrors(errs map[string]any) Option {
	return func(p *ProblemDetails) {
		p.Errors = errs
	}
}

func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	problem := ProblemDetails{
		Type:   typ,
		Title:  title,
		Status: status,
	}

	for _, opt := range opts {
		opt(&problem)
	}

	if problem.Detail == "" && err != nil {
		if env == "development" || env == "test" {
			problem.Detail = err.Error()
		} else {
			problem.Detail = http.StatusText(status)
		}
	}

	if problem.Instance == "" && r != nil {
		problem.Instance = r.URL.Path
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("type", typ).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(title)
	}

	WriteProblem(w, problem)
}

// Error classifies err by its domain kind. Domain messages are always
// shown to the client; anything unclassified is a 500.
func Error(w http.ResponseWriter, r *http.Request, err error, env string) {
	var domainErr *errs.Error
	if !errors.As(err, &domainErr) {
		Write(w, r, http.StatusInternalServerError, TypeServerError, "Server error", err, env)
		return
	}

	status, typ, title := classify(domainErr.Kind)
	Write(w, r, status, typ, title, err, env, WithDetail(domainErr.Message))
}

func classify(kind error) (int, string, string) {
	switch {
	case errors.Is(kind, errs.ErrNotFound):
		return http.StatusNotFound, TypeNotFound, "The required object was not found."
	case errors.Is(kind, errs.ErrForbidden):
		return http.StatusForbidden, TypeForbidden, "For the requested operation the conditions are not met."
	case errors.Is(kind, errs.ErrConflict):
		return http.StatusConflict, TypeConflict, "Integrity constraint has been violated."
	case errors.Is(kind, errs.ErrValidation):
		return http.StatusBadRequest, TypeValidation, "Incorrectly made request."
	}
	return http.StatusInternalServerError, TypeServerError, "Server error"
}

func WriteProblem(w http.ResponseWriter, problem ProblemDetails) {
	payload, err := json.Marshal(problem)
	if err != nil {
		fallback := fmt.Sprintf("{\"type\":\"about:blank\",\"title\":\"%s\",\"status\":500}", http.StatusText(http.StatusInternalServerError))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(problem.Status)
	_, _ = w.Write(payload)
}
