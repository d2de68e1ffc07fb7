package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Recover intercepta panics de handlers e responde 500 no envelope padrão,
// sem expor o valor do panic ao cliente.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("panic recuperado")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"data": nil,
					"error": map[string]any{
						"code":    "INTERNAL",
						"message": "erro interno",
					},
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
