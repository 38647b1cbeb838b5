package credential

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"excelkeeper/internal/app/server/api/http/apierr"
	"excelkeeper/internal/app/server/api/http/middleware"
	"excelkeeper/internal/domain/credential"
	"excelkeeper/internal/domain/token"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Middlewares цепочки для операций с разным уровнем доступа.
type Middlewares struct {
	Login  huma.Middlewares
	Verify huma.Middlewares
	Admin  huma.Middlewares
}

type Handler struct {
	service    credential.Servicer
	tokens     token.Servicer
	log        *slog.Logger
	middleware Middlewares
}

func NewHandler(service credential.Servicer, tokens token.Servicer, log *slog.Logger, mws Middlewares) *Handler {
	return &Handler{
		service:    service,
		tokens:     tokens,
		log:        log.With(slog.String("component", "credential_handler")),
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.loginOp(), h.login)
	huma.Register(api, h.verifyTokenOp(), h.verifyToken)
	huma.Register(api, h.changePasswordOp(), h.changePassword)
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*loginOutput, error) {
	var password string
	if input.Body != nil {
		password = input.Body.Password
	}

	role, err := h.service.Login(context.WithoutCancel(ctx), password)
	switch {
	case errors.Is(err, credential.ErrPasswordRequired):
		return nil, apierr.New(http.StatusBadRequest, apierr.CodePasswordRequired, "Contraseña requerida")
	case errors.Is(err, credential.ErrInvalidPassword):
		return nil, apierr.New(http.StatusUnauthorized, apierr.CodeInvalidPassword, "Contraseña incorrecta")
	case err != nil:
		h.logError(ctx, "login failed", err)
		return nil, apierr.Infra(err, "Error interno del servidor")
	}

	signed, err := h.tokens.Issue(role)
	if err != nil {
		h.logError(ctx, "issue token", err)
		return nil, apierr.Internal()
	}

	h.log.Info("login succeeded", slog.String("role", role.String()),
		slog.String("request_id", middleware.RequestIDFromContext(ctx)))

	return &loginOutput{
		Body: LoginResponse{
			Success: true,
			Data:    LoginData{Token: signed, Role: role},
		},
	}, nil
}

// verifyToken проверяет токен без мидлвари: любая ошибка разбора здесь INVALID_TOKEN.
func (h *Handler) verifyToken(_ context.Context, input *verifyInput) (*verifyOutput, error) {
	raw := ""
	if parts := strings.Fields(input.Authorization); len(parts) > 1 {
		raw = parts[1]
	}

	claims, err := h.tokens.Verify(raw)
	switch {
	case errors.Is(err, token.ErrMissing):
		return nil, apierr.MissingToken()
	case errors.Is(err, token.ErrExpired):
		return nil, apierr.TokenExpired()
	case err != nil:
		return nil, apierr.InvalidToken()
	}

	return &verifyOutput{
		Body: VerifyResponse{
			Success: true,
			Data:    VerifyData{Role: claims.Role, Valid: true},
		},
	}, nil
}

func (h *Handler) changePassword(ctx context.Context, input *changePasswordInput) (*messageOutput, error) {
	var newPassword string
	if input.Body != nil {
		newPassword = input.Body.NewPassword
	}

	err := h.service.ChangeGuestPassword(context.WithoutCancel(ctx), newPassword)
	switch {
	case errors.Is(err, credential.ErrNewPasswordRequired):
		return nil, apierr.Validation("Nueva contraseña requerida")
	case errors.Is(err, credential.ErrPasswordTooLong):
		return nil, apierr.Validation("La contraseña no puede superar 72 bytes")
	case err != nil:
		h.logError(ctx, "change guest password", err)
		return nil, apierr.Infra(err, "Error interno del servidor")
	}

	return &messageOutput{
		Body: MessageResponse{Success: true, Message: "Contraseña actualizada correctamente"},
	}, nil
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.log.Error(msg,
		slog.String("request_id", middleware.RequestIDFromContext(ctx)),
		slog.String("error", err.Error()),
	)
}
