// Package middlewarectx содержит HTTP middleware панели биллинга.
//
// JWTMiddleware проверяет токен оператора в заголовке Authorization и кладёт
// в контекст имя пользователя и роль. Права доступа здесь не проверяются:
// вызывающая сторона считается уже авторизованной, токен лишь указывает,
// кто выполнил операцию.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/club-billing/internal/http/response"
	"github.com/magabrotheeeer/club-billing/internal/lib/jwt"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User — ключ для имени оператора в контексте.
	User Key = "username"
	// Role — ключ для роли оператора в контексте.
	Role Key = "role"
)

// TokenParser проверяет токен и возвращает данные оператора.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.OperatorClaims, error)
}

// JWTMiddleware возвращает middleware, который проверяет JWT в заголовке Authorization.
// При неверном или просроченном токене отвечает 401 Unauthorized.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), User, claims.Username)
			ctx = context.WithValue(ctx, Role, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Operator возвращает имя оператора из контекста запроса или пустую строку.
func Operator(ctx context.Context) string {
	username, _ := ctx.Value(User).(string)
	return username
}
