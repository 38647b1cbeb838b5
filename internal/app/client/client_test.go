package client

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"excelkeeper/internal/app/client/config"
	"excelkeeper/internal/domain/excel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

// fakeServer минимальная копия API: один пароль admin, один файл в памяти.
type fakeServer struct {
	token     string
	fileName  string
	fileData  []byte
	rejectAll bool
}

func (f *fakeServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeServer) authorized(w http.ResponseWriter, r *http.Request) bool {
	if f.rejectAll {
		f.writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Token expirado", "code": "TOKEN_EXPIRED"})
		return false
	}
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		f.writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Token requerido", "code": "MISSING_TOKEN"})
		return false
	}
	return true
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "admin123" {
			f.writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Contraseña incorrecta", "code": "INVALID_PASSWORD"})
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]string{"token": f.token, "role": "admin"}})
	})
	mux.HandleFunc("/api/v1/verify-token", func(w http.ResponseWriter, r *http.Request) {
		if f.authorized(w, r) {
			f.writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"role": "admin", "valid": true}})
		}
	})
	mux.HandleFunc("/api/v1/upload-excel", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		file, hdr, err := r.FormFile(uploadField)
		if err != nil {
			f.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "No se subió ningún archivo"})
			return
		}
		defer file.Close()
		if !excel.AllowedContentType(hdr.Header.Get("Content-Type")) {
			f.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Formato de archivo inválido", "code": "INVALID_FORMAT"})
			return
		}
		f.fileName = hdr.Filename
		f.fileData, _ = io.ReadAll(file)
		f.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Archivo Excel actualizado correctamente"})
	})
	mux.HandleFunc("/api/v1/get-excel", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		if f.fileData == nil {
			f.writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "No hay archivo almacenado", "code": "NOT_FOUND"})
			return
		}
		w.Header().Set("Content-Type", excel.ContentTypeFor(f.fileName))
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.fileName}))
		_, _ = w.Write(f.fileData)
	})
	mux.HandleFunc("/api/v1/delete-excel", func(w http.ResponseWriter, r *http.Request) {
		if f.authorized(w, r) {
			f.fileName, f.fileData = "", nil
			f.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Archivo eliminado con éxito!"})
		}
	})
	mux.HandleFunc("/api/v1/files", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		if f.fileData == nil {
			f.writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "No hay archivos cargados"})
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]any{"id": 1, "file_name": f.fileName, "uploaded_date": "2024-05-01", "success": true})
	})
	mux.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		f.writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": "healthy", "timestamp": time.Now().UTC(), "pool": map[string]int{"total": 1, "idle": 1}})
	})
	return mux
}

func newTestApp(t *testing.T) (*App, *fakeServer) {
	t.Helper()
	fake := &fakeServer{token: "tok-1"}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := &config.Config{
		ServerURL: srv.URL,
		ConfigDir: dir,
		DataPath:  filepath.Join(dir, "client.db"),
		Timeout:   5 * time.Second,
	}
	app, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app, fake
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestApp_RequiresLogin(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	_, err := app.Verify(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = app.Upload(ctx, "x.xlsx")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = app.Download(ctx, "")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	st, err := app.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.LoggedIn)
}

func TestApp_LoginWrongPassword(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := app.Login(context.Background(), "nope")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "INVALID_PASSWORD", apiErr.Code)
	assert.Equal(t, "Contraseña incorrecta", apiErr.Message)
	assert.False(t, apiErr.IsAuth())
	assert.False(t, app.IsAuthenticated())
}

func TestApp_FileLifecycle(t *testing.T) {
	app, fake := newTestApp(t)
	ctx := context.Background()

	role, err := app.Login(ctx, "admin123")
	require.NoError(t, err)
	assert.Equal(t, "admin", role)

	res, err := app.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, res.Valid)

	_, err = app.Download(ctx, t.TempDir())
	assert.ErrorIs(t, err, ErrNoFile)

	src := writeFile(t, "отчет.xlsx", []byte("spreadsheet"))
	msg, err := app.Upload(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "Archivo Excel actualizado correctamente", msg)
	assert.Equal(t, "отчет.xlsx", fake.fileName)

	st, err := app.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.File.Success)
	assert.Equal(t, "отчет.xlsx", st.File.FileName)

	outDir := t.TempDir()
	rec, err := app.Download(ctx, outDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "отчет.xlsx"), rec.LocalPath)
	assert.Equal(t, int64(len("spreadsheet")), rec.SizeBytes)
	assert.Equal(t, "2024-05-01", rec.UploadedDate)
	assert.Len(t, rec.SHA256, 64)

	data, err := os.ReadFile(rec.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("spreadsheet"), data)

	history, err := app.History(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, rec.SHA256, history[0].SHA256)

	msg, err = app.Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Archivo eliminado con éxito!", msg)

	st, err = app.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.File.Success)
}

func TestApp_UploadLocalChecks(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()
	_, err := app.Login(ctx, "admin123")
	require.NoError(t, err)

	_, err = app.Upload(ctx, writeFile(t, "notes.txt", []byte("x")))
	assert.ErrorIs(t, err, excel.ErrInvalidFormat)

	_, err = app.Upload(ctx, writeFile(t, "empty.xls", nil))
	assert.ErrorIs(t, err, excel.ErrEmptyFile)

	big := writeFile(t, "big.xlsx", nil)
	require.NoError(t, os.Truncate(big, excel.MaxFileSize+1))
	_, err = app.Upload(ctx, big)
	assert.ErrorIs(t, err, excel.ErrFileTooLarge)
}

func TestApp_RejectedTokenClearsSession(t *testing.T) {
	app, fake := newTestApp(t)
	ctx := context.Background()
	_, err := app.Login(ctx, "admin123")
	require.NoError(t, err)

	fake.rejectAll = true
	_, err = app.Verify(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.True(t, IsAuthError(err))
	assert.False(t, app.IsAuthenticated())

	_, err = app.storage.LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestApp_SessionPersists(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()
	_, err := app.Login(ctx, "admin123")
	require.NoError(t, err)

	reopened := newApp(app.config, app.log, app.storage)
	assert.True(t, reopened.IsAuthenticated())
	assert.Equal(t, "admin", reopened.Role())

	other := *app.config
	other.ServerURL = "http://other.example"
	assert.False(t, newApp(&other, app.log, app.storage).IsAuthenticated())
}

func TestApp_Health(t *testing.T) {
	app, _ := newTestApp(t)

	h, err := app.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 1, h.Pool.Total)
}
