package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"excelkeeper/internal/infrastructure/storage/postgres"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		err     *Error
		status  int
		code    string
		message string
	}{
		{MissingToken(), http.StatusUnauthorized, CodeMissingToken, "Token de acceso requerido"},
		{TokenExpired(), http.StatusUnauthorized, CodeTokenExpired, "Token expirado"},
		{InvalidToken(), http.StatusForbidden, CodeInvalidToken, "Token inválido"},
		{MalformedToken(), http.StatusForbidden, CodeMalformedToken, "Token malformado"},
		{Forbidden(), http.StatusForbidden, CodeForbidden, "Permisos de administrador requeridos"},
		{Internal(), http.StatusInternalServerError, CodeInternal, "Error interno del servidor"},
		{Unavailable(), http.StatusServiceUnavailable, CodeUnavailable, "Servicio no disponible"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.GetStatus())
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.message, tt.err.Message)
			assert.False(t, tt.err.Success)
			assert.Equal(t, "application/json", tt.err.ContentType("application/problem+json"))
		})
	}
}

func TestWriteHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTP(rec, NotFound("Endpoint no encontrado"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{
		"success": false,
		"error":   "Endpoint no encontrado",
		"code":    CodeNotFound,
	}, body)
}

func TestInstall(t *testing.T) {
	prev := huma.NewError
	t.Cleanup(func() { huma.NewError = prev })
	Install()

	tests := []struct {
		name   string
		status int
		msg    string
		code   string
		want   int
	}{
		{name: "body too large", status: http.StatusRequestEntityTooLarge, msg: "request body is too large", code: CodeFileTooLarge, want: http.StatusBadRequest},
		{name: "validation", status: http.StatusUnprocessableEntity, msg: "validation failed", code: CodeValidation, want: http.StatusBadRequest},
		{name: "not found", status: http.StatusNotFound, msg: "not found", code: CodeNotFound, want: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError, msg: "boom", code: CodeInternal, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := huma.NewError(tt.status, tt.msg, errors.New("pq: relation \"excel_files\" does not exist"))

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.want, e.GetStatus())
			assert.Equal(t, tt.code, e.Code)
			assert.Empty(t, e.Details)
		})
	}
}

func TestInstall_Details(t *testing.T) {
	prev := huma.NewError
	t.Cleanup(func() { huma.NewError = prev })
	Install()

	t.Run("field errors kept", func(t *testing.T) {
		err := huma.NewError(http.StatusUnprocessableEntity, "validation failed",
			&huma.ErrorDetail{Location: "body.password", Message: "expected string"},
			&huma.ErrorDetail{Location: "body", Message: "cannot read multipart form: unexpected EOF"},
		)

		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, CodeValidation, e.Code)
		assert.Equal(t, []string{"body.password: expected string"}, e.Details)

		raw, mErr := json.Marshal(e)
		require.NoError(t, mErr)
		assert.NotContains(t, string(raw), "multipart")
	})

	t.Run("multipart over limit", func(t *testing.T) {
		err := huma.NewError(http.StatusUnprocessableEntity, "validation failed",
			&huma.ErrorDetail{Location: "body", Message: "cannot read multipart form: " + (&http.MaxBytesError{Limit: 1}).Error()},
		)

		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, http.StatusBadRequest, e.GetStatus())
		assert.Equal(t, CodeFileTooLarge, e.Code)
		assert.Empty(t, e.Details)
	})

	t.Run("wrapped max bytes error", func(t *testing.T) {
		err := huma.NewError(http.StatusBadRequest, "cannot read request body", fmt.Errorf("read: %w", &http.MaxBytesError{Limit: 1}))

		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, CodeFileTooLarge, e.Code)
	})
}

func TestInfra(t *testing.T) {
	e := Infra(fmt.Errorf("query: %w", postgres.ErrShuttingDown), "Error al eliminar el archivo")
	assert.Equal(t, http.StatusServiceUnavailable, e.GetStatus())
	assert.Equal(t, CodeUnavailable, e.Code)

	e = Infra(errors.New("connection refused"), "Error al eliminar el archivo")
	assert.Equal(t, http.StatusInternalServerError, e.GetStatus())
	assert.Equal(t, CodeInternal, e.Code)
	assert.Equal(t, "Error al eliminar el archivo", e.Message)
}
