package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"excelkeeper/internal/app/client/config"
	"excelkeeper/internal/domain/excel"
)

type App struct {
	config     *config.Config
	log        *slog.Logger
	httpClient *httpClient
	storage    Storage
	session    *Session
	mu         sync.RWMutex
}

// Status текущее состояние клиента и файла на сервере.
type Status struct {
	Server   string
	LoggedIn bool
	Role     string
	File     FileInfo
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	storage, err := NewSQLiteStorage(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	return newApp(cfg, log, storage), nil
}

func newApp(cfg *config.Config, log *slog.Logger, storage Storage) *App {
	app := &App{
		config:     cfg,
		log:        log.With(slog.String("component", "client")),
		httpClient: NewHTTPClient(cfg, log),
		storage:    storage,
	}

	sess, err := storage.LoadSession()
	switch {
	case err == nil && sess.Server == cfg.ServerURL:
		app.session = &sess
		app.httpClient.SetToken(sess.Token)
		app.log.Debug("Сессия загружена", slog.String("role", sess.Role))
	case err == nil:
		app.log.Debug("Сессия выдана другим сервером, игнорируем", slog.String("server", sess.Server))
	case !errors.Is(err, ErrNoSession):
		app.log.Warn("Не удалось загрузить сессию", slog.String("error", err.Error()))
	}

	return app
}

func (a *App) Close() error {
	return a.storage.Close()
}

func (a *App) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session != nil
}

func (a *App) Role() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return ""
	}
	return a.session.Role
}

func (a *App) Login(ctx context.Context, password string) (string, error) {
	res, err := a.httpClient.Login(ctx, password)
	if err != nil {
		return "", err
	}

	sess := Session{Token: res.Token, Role: res.Role, Server: a.config.ServerURL, SavedAt: time.Now()}
	if err := a.storage.SaveSession(sess); err != nil {
		return "", err
	}

	a.mu.Lock()
	a.session = &sess
	a.mu.Unlock()
	a.httpClient.SetToken(sess.Token)

	a.log.Info("Вход выполнен", slog.String("role", sess.Role))
	return sess.Role, nil
}

// Logout удаляет токен локально. Сервер токены не отзывает.
func (a *App) Logout() error {
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
	a.httpClient.SetToken("")
	return a.storage.ClearSession()
}

func (a *App) Verify(ctx context.Context) (VerifyResult, error) {
	if err := a.requireSession(); err != nil {
		return VerifyResult{}, err
	}
	res, err := a.httpClient.VerifyToken(ctx)
	return res, a.handleAuthError(err)
}

func (a *App) ChangeGuestPassword(ctx context.Context, newPassword string) (string, error) {
	if err := a.requireSession(); err != nil {
		return "", err
	}
	msg, err := a.httpClient.ChangeGuestPassword(ctx, newPassword)
	return msg, a.handleAuthError(err)
}

// Upload проверяет расширение и размер локально, затем отправляет файл.
func (a *App) Upload(ctx context.Context, path string) (string, error) {
	if err := a.requireSession(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xls" {
		return "", fmt.Errorf("%s: %w", path, excel.ErrInvalidFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("ошибка чтения файла: %w", err)
	}
	if info.Size() == 0 {
		return "", excel.ErrEmptyFile
	}
	if info.Size() > excel.MaxFileSize {
		return "", excel.ErrFileTooLarge
	}

	msg, err := a.httpClient.Upload(ctx, filepath.Base(path), f)
	if err != nil {
		return "", a.handleAuthError(err)
	}

	a.log.Info("Файл загружен", slog.String("file", filepath.Base(path)), slog.Int64("size", info.Size()))
	return msg, nil
}

// Download сохраняет файл с сервера. Пустой dest означает текущий каталог,
// каталог в dest дополняется именем файла с сервера.
func (a *App) Download(ctx context.Context, dest string) (DownloadRecord, error) {
	if err := a.requireSession(); err != nil {
		return DownloadRecord{}, err
	}

	dir, target := dest, ""
	if dest == "" {
		dir = "."
	} else if st, err := os.Stat(dest); err != nil || !st.IsDir() {
		dir, target = filepath.Dir(dest), dest
	}

	tmp, err := os.CreateTemp(dir, ".excelkeeper-*.part")
	if err != nil {
		return DownloadRecord{}, fmt.Errorf("ошибка создания файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	hash := sha256.New()
	name, size, err := a.httpClient.Download(ctx, io.MultiWriter(tmp, hash))
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("ошибка записи файла: %w", cerr)
	}
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return DownloadRecord{}, ErrNoFile
		}
		return DownloadRecord{}, a.handleAuthError(err)
	}

	if target == "" {
		safe, err := excel.SanitizeName(name)
		if err != nil {
			safe = "excel.xlsx"
		}
		target = filepath.Join(dir, safe)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return DownloadRecord{}, fmt.Errorf("ошибка сохранения файла: %w", err)
	}

	rec := DownloadRecord{
		FileName:     name,
		LocalPath:    target,
		SizeBytes:    size,
		SHA256:       hex.EncodeToString(hash.Sum(nil)),
		DownloadedAt: time.Now(),
	}
	if info, err := a.httpClient.Files(ctx); err == nil && info.Success {
		rec.UploadedDate = info.UploadedDate
	}

	if abs, err := filepath.Abs(target); err == nil {
		rec.LocalPath = abs
	}
	id, err := a.storage.AddDownload(rec)
	if err != nil {
		a.log.Warn("Не удалось записать историю", slog.String("error", err.Error()))
	}
	rec.ID = id

	return rec, nil
}

func (a *App) Delete(ctx context.Context) (string, error) {
	if err := a.requireSession(); err != nil {
		return "", err
	}
	msg, err := a.httpClient.Delete(ctx)
	return msg, a.handleAuthError(err)
}

func (a *App) Status(ctx context.Context) (Status, error) {
	st := Status{Server: a.config.ServerURL, LoggedIn: a.IsAuthenticated(), Role: a.Role()}
	if !st.LoggedIn {
		return st, nil
	}

	info, err := a.httpClient.Files(ctx)
	if err != nil {
		err = a.handleAuthError(err)
		st.LoggedIn = a.IsAuthenticated()
		return st, err
	}
	st.File = info
	return st, nil
}

func (a *App) Health(ctx context.Context) (HealthStatus, error) {
	return a.httpClient.Health(ctx)
}

func (a *App) History(limit int) ([]DownloadRecord, error) {
	return a.storage.ListDownloads(limit)
}

func (a *App) requireSession() error {
	if !a.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	return nil
}

// handleAuthError сбрасывает сессию, если сервер отверг токен.
func (a *App) handleAuthError(err error) error {
	if err == nil || !IsAuthError(err) {
		return err
	}

	a.log.Debug("Токен отклонен сервером, сессия сброшена")
	if cerr := a.Logout(); cerr != nil {
		a.log.Warn("Не удалось удалить сессию", slog.String("error", cerr.Error()))
	}
	return fmt.Errorf("%w: %w", ErrNotLoggedIn, err)
}
