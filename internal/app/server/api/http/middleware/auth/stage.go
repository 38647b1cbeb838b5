package auth

import (
	"excelkeeper/internal/app/server/api/http/apierr"
	"excelkeeper/internal/domain/credential"

	"github.com/danielgtaylor/huma/v2"
)

// Stage один шаг проверки доступа. Ненулевая ошибка прерывает цепочку и уходит клиенту.
type Stage func(ctx huma.Context) (huma.Context, *apierr.Error)

// Chain выполняет стадии по порядку и только затем вызывает обработчик.
func Chain(stages ...Stage) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		for _, stage := range stages {
			var e *apierr.Error
			ctx, e = stage(ctx)
			if e != nil {
				apierr.Write(ctx, e)
				return
			}
		}
		next(ctx)
	}
}

// RequireRole пропускает только claims с указанной ролью. Должна идти после Authenticate.
func RequireRole(required credential.Role) Stage {
	return func(ctx huma.Context) (huma.Context, *apierr.Error) {
		claims, ok := ClaimsFrom(ctx.Context())
		if !ok {
			return ctx, apierr.MissingToken()
		}
		if claims.Role != required {
			return ctx, apierr.Forbidden()
		}
		return ctx, nil
	}
}
