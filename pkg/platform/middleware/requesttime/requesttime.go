// Package requesttime pins one "now" per request so a lookup result and its
// log lines agree on when the check happened.
package requesttime

import (
	"net/http"
	"time"

	"domainlens/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), time.Now().UTC())))
	})
}
