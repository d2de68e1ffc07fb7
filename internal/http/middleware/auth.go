package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cbbasket/processos/internal/auth"
)

type contextKey string

const (
	ContextKeyUsuario contextKey = "usuario"
	ContextKeySetor   contextKey = "setor"
	ContextKeyCargo   contextKey = "cargo"
)

// Auth valida JWT de acesso e injeta identidade no contexto. Qualquer token
// ausente, expirado ou inválido responde 401 de forma uniforme — nenhum
// handler reimplementa essa checagem.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido ou expirado")
				return
			}

			usuarioID, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil || usuarioID <= 0 {
				writeError(w, http.StatusUnauthorized, "AUTH", "subject inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUsuario, usuarioID)
			ctx = context.WithValue(ctx, ContextKeySetor, claims.SetorID)
			ctx = context.WithValue(ctx, ContextKeyCargo, claims.Cargo)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUsuarioID recupera o id do usuário autenticado.
func GetUsuarioID(ctx context.Context) int64 {
	val, _ := ctx.Value(ContextKeyUsuario).(int64)
	return val
}

// GetSetorID recupera o setor do usuário; nil quando não possui setor.
func GetSetorID(ctx context.Context) *int64 {
	val, _ := ctx.Value(ContextKeySetor).(int64)
	if val <= 0 {
		return nil
	}
	return &val
}

// GetCargo recupera o cargo do usuário autenticado.
func GetCargo(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyCargo).(string)
	return val
}

// WithIdentity injeta identidade no contexto; usado em testes de handler.
func WithIdentity(ctx context.Context, usuarioID, setorID int64) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUsuario, usuarioID)
	return context.WithValue(ctx, ContextKeySetor, setorID)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
