// Package middleware holds the HTTP middlewares mounted by the API server
package middleware

import (
	"net/http"
	"strings"

	pnet "ghrepostats/internal/platform/net"

	"github.com/google/uuid"
)

// HeaderRequestID is read from the request and mirrored on the response
const HeaderRequestID = "X-Request-ID"

var newID = func() string { return uuid.NewString() }

// RequestID propagates an incoming X-Request-ID or mints a uuid, and stores it on the context
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" || len(id) > 128 {
			id = newID()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(pnet.WithRequest(r.Context(), id)))
	})
}
