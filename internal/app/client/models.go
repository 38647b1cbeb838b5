package client

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrNotLoggedIn = errors.New("требуется вход: excelkeeper auth login")
	ErrNoSession   = errors.New("сессия не найдена")
	ErrNoFile      = errors.New("на сервере нет файла")
)

// APIError ответ сервера в конверте {success:false, error, code}.
type APIError struct {
	Status  int    `json:"-"`
	Success bool   `json:"success"`
	Message string `json:"error"`
	Code    string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// IsAuth токен отсутствует, истек или отклонен.
func (e *APIError) IsAuth() bool {
	switch e.Code {
	case "MISSING_TOKEN", "TOKEN_EXPIRED", "INVALID_TOKEN", "MALFORMED_TOKEN":
		return true
	}
	return false
}

// IsAuthError сообщает, что сохраненный токен больше не годится.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsAuth()
}

func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func IsRateLimited(err error) bool {
	return IsStatus(err, http.StatusTooManyRequests)
}

type Session struct {
	Token   string
	Role    string
	Server  string
	SavedAt time.Time
}

type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type VerifyResult struct {
	Role  string `json:"role"`
	Valid bool   `json:"valid"`
}

type HealthStatus struct {
	Success   bool      `json:"success"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Pool      struct {
		Total   int `json:"total"`
		Idle    int `json:"idle"`
		Waiting int `json:"waiting"`
	} `json:"pool"`
}

// FileInfo ответ /api/v1/files.
type FileInfo struct {
	ID           int    `json:"id"`
	FileName     string `json:"file_name"`
	UploadedDate string `json:"uploaded_date"`
	Success      bool   `json:"success"`
	Message      string `json:"message"`
}

// DownloadRecord запись истории скачиваний в локальной БД.
type DownloadRecord struct {
	ID           int64     `json:"id"`
	FileName     string    `json:"file_name"`
	UploadedDate string    `json:"uploaded_date"`
	LocalPath    string    `json:"local_path"`
	SizeBytes    int64     `json:"size_bytes"`
	SHA256       string    `json:"sha256"`
	DownloadedAt time.Time `json:"downloaded_at"`
}
