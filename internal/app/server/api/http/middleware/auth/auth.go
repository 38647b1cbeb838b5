package auth

import (
	"context"
	"errors"
	"strings"

	"excelkeeper/internal/app/server/api/http/apierr"
	"excelkeeper/internal/domain/credential"
	"excelkeeper/internal/domain/token"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

type Auth struct {
	tokens token.Servicer
	log    *slog.Logger
}

func New(tokens token.Servicer, log *slog.Logger) *Auth {
	return &Auth{
		tokens: tokens,
		log:    log.With(slog.String("component", "auth_middleware")),
	}
}

type contextKey struct{}

// Authenticate проверяет Bearer-токен и кладет claims в контекст запроса.
func (a *Auth) Authenticate() Stage {
	return func(ctx huma.Context) (huma.Context, *apierr.Error) {
		raw, ok := bearer(ctx.Header("Authorization"))
		if !ok {
			return ctx, apierr.InvalidToken()
		}

		claims, err := a.tokens.Verify(raw)
		if err != nil {
			a.log.Debug("token rejected",
				slog.String("path", ctx.URL().Path),
				slog.String("reason", err.Error()),
			)
			return ctx, mapTokenError(err)
		}

		return huma.WithContext(ctx, WithClaims(ctx.Context(), claims)), nil
	}
}

// Middleware только аутентификация.
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return Chain(a.Authenticate())
}

// AdminMiddleware аутентификация и роль admin.
func (a *Auth) AdminMiddleware() func(huma.Context, func(huma.Context)) {
	return Chain(a.Authenticate(), RequireRole(credential.RoleAdmin))
}

func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

func ClaimsFrom(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*token.Claims)
	return claims, ok && claims != nil
}

// bearer извлекает токен из "Bearer <token>". Пустой заголовок дает пустой токен, чужая схема ok=false.
func bearer(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) < 2 {
		return "", true
	}
	return parts[1], strings.EqualFold(parts[0], "Bearer")
}

func mapTokenError(err error) *apierr.Error {
	switch {
	case errors.Is(err, token.ErrMissing):
		return apierr.MissingToken()
	case errors.Is(err, token.ErrExpired):
		return apierr.TokenExpired()
	case errors.Is(err, token.ErrMalformed):
		return apierr.MalformedToken()
	default:
		return apierr.InvalidToken()
	}
}
