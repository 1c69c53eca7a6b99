package middleware

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// HeaderRequestID — заголовок идентификатора запроса.
const HeaderRequestID = "X-Request-ID"

// maxRequestIDLen — входящий идентификатор длиннее отбрасывается.
const maxRequestIDLen = 128

// RequestID присваивает запросу идентификатор через chi middleware.RequestID:
// берёт X-Request-ID клиента или генерирует новый. Идентификатор
// возвращается в ответе.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(HeaderRequestID, chimw.GetReqID(r.Context()))
			next.ServeHTTP(w, r)
		})
		assign := chimw.RequestID(echo)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.Header.Get(chimw.RequestIDHeader)) > maxRequestIDLen {
				r.Header.Del(chimw.RequestIDHeader)
			}
			assign.ServeHTTP(w, r)
		})
	}
}

// RequestIDFromContext возвращает идентификатор запроса или "".
func RequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}
