package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/thirtyapp/thirty/internal/api"
)

// Recover converts handler panics to 500 responses so a bad request can
// never take the process down.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec != nil {
				slog.Error("handler panic",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				api.Error(w, http.StatusInternalServerError, api.CodeInternal, "something went wrong, please try again")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
