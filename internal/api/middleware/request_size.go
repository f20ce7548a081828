package middleware

import "net/http"

const (
	// DefaultMaxBodySize covers every JSON body the API accepts.
	DefaultMaxBodySize int64 = 1 << 20

	// AdminMaxBodySize leaves room for compilations with long event lists.
	AdminMaxBodySize int64 = 5 << 20
)

// RequestSize wraps the body in http.MaxBytesReader. Handlers see a read
// error once more than maxBytes arrive and answer 413.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func PublicRequestSize() func(http.Handler) http.Handler {
	return RequestSize(DefaultMaxBodySize)
}

func AdminRequestSize() func(http.Handler) http.Handler {
	return RequestSize(AdminMaxBodySize)
}
