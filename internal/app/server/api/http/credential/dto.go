package credential

import "excelkeeper/internal/domain/credential"

type loginInput struct {
	Body *loginRequest `required:"false"`
}

type loginRequest struct {
	Password string `json:"password,omitempty" required:"false" doc:"Пароль администратора или гостя"`
}

type loginOutput struct {
	Body LoginResponse
}

type LoginResponse struct {
	Success bool      `json:"success"`
	Data    LoginData `json:"data"`
}

type LoginData struct {
	Token string          `json:"token"`
	Role  credential.Role `json:"role" enum:"admin,guest"`
}

type verifyInput struct {
	Authorization string `header:"Authorization" required:"false"`
}

type verifyOutput struct {
	Body VerifyResponse
}

type VerifyResponse struct {
	Success bool       `json:"success"`
	Data    VerifyData `json:"data"`
}

type VerifyData struct {
	Role  credential.Role `json:"role"`
	Valid bool            `json:"valid"`
}

type changePasswordInput struct {
	Body *changePasswordRequest `required:"false"`
}

type changePasswordRequest struct {
	NewPassword string `json:"newPassword,omitempty" required:"false" doc:"Новый пароль гостя"`
}

type messageOutput struct {
	Body MessageResponse
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
