package credential

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) loginOp() huma.Operation {
	return huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/login",
		Summary:     "Вход по паролю, выдача токена на 1 час",
		Tags:        []string{"auth"},
		Middlewares: h.middleware.Login,
	}
}

func (h *Handler) verifyTokenOp() huma.Operation {
	return huma.Operation{
		OperationID: "verify-token",
		Method:      http.MethodGet,
		Path:        "/api/v1/verify-token",
		Summary:     "Проверка токена",
		Tags:        []string{"auth"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware.Verify,
	}
}

func (h *Handler) changePasswordOp() huma.Operation {
	return huma.Operation{
		OperationID: "new-password",
		Method:      http.MethodPost,
		Path:        "/api/v1/new-password",
		Summary:     "Смена пароля гостя",
		Tags:        []string{"auth"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware.Admin,
	}
}
