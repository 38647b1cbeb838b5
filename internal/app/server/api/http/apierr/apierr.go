// Package apierr единый JSON-конверт ошибок API: {"success": false, "error": "...", "code": "..."}.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"excelkeeper/internal/infrastructure/storage/postgres"

	"github.com/danielgtaylor/huma/v2"
)

const (
	CodeMissingToken     = "MISSING_TOKEN"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodeMalformedToken   = "MALFORMED_TOKEN"
	CodeForbidden        = "FORBIDDEN"
	CodeValidation       = "VALIDATION_ERROR"
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidFormat    = "INVALID_FORMAT"
	CodePasswordRequired = "PASSWORD_REQUIRED"
	CodeInvalidPassword  = "INVALID_PASSWORD"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
	CodeUnavailable      = "UNAVAILABLE"
)

// Error реализует huma.StatusError, поэтому его можно возвращать из обработчиков.
type Error struct {
	status  int
	Success bool     `json:"success"`
	Message string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

func New(status int, code, message string) *Error {
	return &Error{status: status, Message: message, Code: code}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.status, e.Code, e.Message)
}

func (e *Error) GetStatus() int {
	return e.status
}

// ContentType заменяет application/problem+json, который huma ставит по умолчанию.
func (e *Error) ContentType(string) string {
	return "application/json"
}

func MissingToken() *Error {
	return New(http.StatusUnauthorized, CodeMissingToken, "Token de acceso requerido")
}

func TokenExpired() *Error {
	return New(http.StatusUnauthorized, CodeTokenExpired, "Token expirado")
}

func InvalidToken() *Error {
	return New(http.StatusForbidden, CodeInvalidToken, "Token inválido")
}

func MalformedToken() *Error {
	return New(http.StatusForbidden, CodeMalformedToken, "Token malformado")
}

// Forbidden отказ по роли, текст не зависит от того, какая роль требовалась.
func Forbidden() *Error {
	return New(http.StatusForbidden, CodeForbidden, "Permisos de administrador requeridos")
}

func Validation(message string) *Error {
	return New(http.StatusBadRequest, CodeValidation, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

func RateLimited(message string) *Error {
	return New(http.StatusTooManyRequests, CodeRateLimited, message)
}

func Internal() *Error {
	return New(http.StatusInternalServerError, CodeInternal, "Error interno del servidor")
}

func Unavailable() *Error {
	return New(http.StatusServiceUnavailable, CodeUnavailable, "Servicio no disponible")
}

// Infra ошибка хранилища: 503 во время остановки, иначе 500 с сообщением операции.
func Infra(err error, message string) *Error {
	if errors.Is(err, postgres.ErrShuttingDown) {
		return Unavailable()
	}
	return New(http.StatusInternalServerError, CodeInternal, message)
}

// Write пишет ошибку напрямую в ответ huma-мидлвари.
func Write(ctx huma.Context, e *Error) {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetStatus(e.status)
	_ = json.NewEncoder(ctx.BodyWriter()).Encode(e)
}

// WriteHTTP то же для обычных net/http обработчиков.
func WriteHTTP(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.status)
	_ = json.NewEncoder(w).Encode(e)
}

// Install подменяет huma.NewError, чтобы ошибки фреймворка (валидация, размер тела) шли в том же конверте.
// Тексты внутренних ошибок в ответ не попадают, в details остаются только ошибки конкретных полей.
func Install() {
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		var details []string
		tooLarge := status == http.StatusRequestEntityTooLarge
		for _, err := range errs {
			if err == nil {
				continue
			}
			tooLarge = tooLarge || bodyTooLarge(err)

			var fe *huma.ErrorDetail
			if errors.As(err, &fe) && fieldLocation(fe.Location) {
				details = append(details, fe.Location+": "+fe.Message)
			}
		}

		var e *Error
		switch {
		case tooLarge:
			e = New(http.StatusBadRequest, CodeFileTooLarge, "Archivo demasiado grande (máximo 10MB)")
		case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
			e = Validation("Datos de entrada inválidos")
		case status == http.StatusUnauthorized:
			e = MissingToken()
		case status == http.StatusForbidden:
			e = Forbidden()
		case status == http.StatusNotFound:
			e = NotFound("Endpoint no encontrado")
		case status == http.StatusConflict:
			e = New(status, CodeConflict, msg)
		case status == http.StatusTooManyRequests:
			e = RateLimited(msg)
		case status == http.StatusServiceUnavailable:
			e = Unavailable()
		case status >= 500:
			e = Internal()
		default:
			e = New(status, CodeValidation, msg)
		}
		e.Details = details
		return e
	}
}

// maxBytesText текст *http.MaxBytesError; huma передает ошибку чтения multipart только строкой.
var maxBytesText = (&http.MaxBytesError{}).Error()

func bodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), maxBytesText)
}

// fieldLocation true для путей вида body.password, query.x: ошибка относится к полю, а не к чтению тела.
func fieldLocation(loc string) bool {
	return strings.Contains(loc, ".")
}
