package middleware

import (
	"net/http"
	"runtime/debug"

	perr "ghrepostats/internal/platform/errors"
	"ghrepostats/internal/platform/logger"
	phttp "ghrepostats/internal/platform/net/http"
)

// RecoverJSON converts panics into the standard JSON 500 envelope and logs the stack
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			phttp.RespondError(w, r, perr.Internalf("internal server error"))
		}()
		next.ServeHTTP(w, r)
	})
}
