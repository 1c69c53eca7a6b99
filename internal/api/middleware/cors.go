package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/cors"
)

// corsMaxAge — время кэширования preflight браузером, секунды.
const corsMaxAge = 300

// CORS возвращает middleware, разрешающий кросс-доменные запросы
// с origins из списка ("*" — любой). Любой OPTIONS отвечает 200
// {"status":"ok"} сразу, до аутентификации.
func CORS(origins []string) func(http.Handler) http.Handler {
	withHeaders := cors.Handler(cors.Options{
		AllowedOrigins:     origins,
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type", "Authorization", HeaderRequestID},
		ExposedHeaders:     []string{HeaderRequestID},
		MaxAge:             corsMaxAge,
		OptionsPassthrough: true,
	})

	return func(next http.Handler) http.Handler {
		return withHeaders(answerOptions(next))
	}
}

// answerOptions завершает OPTIONS-запрос, не передавая его дальше.
func answerOptions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
}
