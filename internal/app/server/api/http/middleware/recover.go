package middleware

import (
	"net/http"
	"runtime/debug"

	"excelkeeper/internal/app/server/api/http/apierr"

	"golang.org/x/exp/slog"
)

// Recover перехватывает панику обработчика и отвечает 500 в общем конверте ошибок.
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	log = log.With(slog.String("component", "recover"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					log.Error("panic",
						slog.Any("panic", v),
						slog.String("request_id", RequestIDFromContext(r.Context())),
						slog.String("stack", string(debug.Stack())),
					)
					apierr.WriteHTTP(w, apierr.Internal())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
