package middleware

import (
	"net/http"
	"path"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// LimitBody ограничивает тело запросов к paths limit байтами. Чтение сверх лимита возвращает *http.MaxBytesError.
func LimitBody(limit int64, paths ...string) func(http.Handler) http.Handler {
	match := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		match[p] = struct{}{}
	}
	sized := chimw.RequestSize(limit)

	return func(next http.Handler) http.Handler {
		limited := sized(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := match[path.Clean("/"+r.URL.Path)]; ok {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
