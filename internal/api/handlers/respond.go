// Package handlers adapts HTTP requests to the domain services.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Togather-Foundation/meetups/internal/api/problem"
	"github.com/Togather-Foundation/meetups/internal/domain/errs"
	"github.com/Togather-Foundation/meetups/internal/domain/ids"
	"github.com/Togather-Foundation/meetups/internal/domain/optional"
	"github.com/Togather-Foundation/meetups/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads the body into dst, normalizes it when dst knows how and
// runs its validate tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, env string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeValidation, "Request body too large", err, env,
				problem.WithDetail(fmt.Sprintf("Request body must not exceed %d bytes", maxErr.Limit)))
		case errors.Is(err, io.EOF):
			problem.Error(w, r, errs.Validation("Request body is required"), env)
		default:
			problem.Error(w, r, errs.Validation("Malformed JSON request: %s", err.Error()), env)
		}
		return false
	}
	if n, ok := dst.(interface{ normalize() }); ok {
		n.normalize()
	}
	if err := validation.Struct(dst); err != nil {
		problem.Error(w, r, err, env)
		return false
	}
	return true
}

// pathID parses a numeric path value. Failures are written as 400s.
func pathID(w http.ResponseWriter, r *http.Request, key, env string) (int64, bool) {
	id, err := ids.Parse(r.PathValue(key))
	if err != nil {
		problem.Error(w, r, errs.Validation("Failed to convert value of %s: %s", key, err.Error()), env)
		return 0, false
	}
	return id, true
}

func queryID(w http.ResponseWriter, r *http.Request, key, env string) (int64, bool) {
	raw := r.URL.Query().Get(key)
	if strings.TrimSpace(raw) == "" {
		problem.Error(w, r, errs.Validation("Required request parameter '%s' is not present", key), env)
		return 0, false
	}
	id, err := ids.Parse(raw)
	if err != nil {
		problem.Error(w, r, errs.Validation("Failed to convert value of %s: %s", key, err.Error()), env)
		return 0, false
	}
	return id, true
}

func queryIDs(r *http.Request, key string) ([]int64, error) {
	list, err := ids.ParseList(r.URL.Query()[key])
	if err != nil {
		return nil, errs.Validation("Failed to convert value of %s: %s", key, err.Error())
	}
	return list, nil
}

func queryTime(r *http.Request, key string) (optional.Value[time.Time], error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return optional.None[time.Time](), nil
	}
	t, err := time.ParseInLocation(DateTimeLayout, raw, time.UTC)
	if err != nil {
		return optional.None[time.Time](), errs.Validation("Field: %s. Error: must match %s. Value: %s", key, "yyyy-MM-dd HH:mm:ss", raw)
	}
	return optional.Of(t), nil
}

func queryBool(r *http.Request, key string) (optional.Value[bool], error) {
	raw := strings.TrimSpace(strings.ToLower(r.URL.Query().Get(key)))
	switch raw {
	case "":
		return optional.None[bool](), nil
	case "true":
		return optional.Of(true), nil
	case "false":
		return optional.Of(false), nil
	}
	return optional.None[bool](), errs.Validation("Field: %s. Error: must be true or false. Value: %s", key, raw)
}

func ptrOption[T any](p *T) optional.Value[T] {
	if p == nil {
		return optional.None[T]()
	}
	return optional.Of(*p)
}

// splitList flattens repeated and comma separated query values.
func splitList(values []string) []string {
	var out []string
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
