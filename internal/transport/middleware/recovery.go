package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

const panicPage = `<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><title>Something went wrong</title></head>
<body style="font-family:sans-serif;text-align:center;padding:4rem">
<h1>Something went wrong</h1>
<p>The page could not be displayed. Please reload or <a href="/">go back home</a>.</p>
</body></html>`

// RecoveryMiddleware logs a panic once and answers with a plain error page
// that does not depend on the template set.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						"error", err,
						"method", r.Method,
						"url", r.URL.String(),
						"stack", string(debug.Stack()))

					w.Header().Set("Content-Type", "text/html; charset=utf-8")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(panicPage))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
