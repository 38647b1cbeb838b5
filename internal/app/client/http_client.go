package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"excelkeeper/internal/app/client/config"
	"excelkeeper/internal/domain/excel"

	"golang.org/x/exp/slog"
)

const uploadField = "excelFile"

type httpClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 2,
		},
		// Неизвестные пути сервер перенаправляет на "/", редирект означает ошибку адреса.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &httpClient{
		client:    client,
		log:       log,
		baseURL:   cfg.ServerURL,
		userAgent: "Excelkeeper-Client/1.0",
	}
}

// SetToken устанавливает токен аутентификации
func (h *httpClient) SetToken(token string) {
	h.token = token
}

func (h *httpClient) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return out, err
	}
	return out, h.parseResponse(resp, &out)
}

func (h *httpClient) Login(ctx context.Context, password string) (LoginResult, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/login", map[string]string{"password": password})
	if err != nil {
		return LoginResult{}, err
	}

	var out struct {
		Data LoginResult `json:"data"`
	}
	if err := h.parseResponse(resp, &out); err != nil {
		return LoginResult{}, err
	}
	return out.Data, nil
}

func (h *httpClient) VerifyToken(ctx context.Context) (VerifyResult, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/verify-token", nil)
	if err != nil {
		return VerifyResult{}, err
	}

	var out struct {
		Data VerifyResult `json:"data"`
	}
	if err := h.parseResponse(resp, &out); err != nil {
		return VerifyResult{}, err
	}
	return out.Data, nil
}

func (h *httpClient) ChangeGuestPassword(ctx context.Context, newPassword string) (string, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/new-password", map[string]string{"newPassword": newPassword})
	if err != nil {
		return "", err
	}
	return h.parseMessage(resp)
}

// Upload отправляет файл полем excelFile, тип части выбирается по расширению.
func (h *httpClient) Upload(ctx context.Context, fileName string, r io.Reader) (string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     uploadField,
		"filename": fileName,
	}))
	header.Set("Content-Type", excel.ContentTypeFor(fileName))

	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("ошибка формирования формы: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("ошибка чтения файла: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("ошибка формирования формы: %w", err)
	}

	req, err := h.newRequest(ctx, http.MethodPost, "/api/v1/upload-excel", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.send(req)
	if err != nil {
		return "", err
	}
	return h.parseMessage(resp)
}

// Download пишет тело ответа в dst и возвращает имя файла из Content-Disposition.
func (h *httpClient) Download(ctx context.Context, dst io.Writer) (string, int64, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/get-excel", nil)
	if err != nil {
		return "", 0, err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", 0, h.parseResponse(resp, nil)
	}
	defer resp.Body.Close()

	name := "excel.xlsx"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return "", n, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	return name, n, nil
}

func (h *httpClient) Delete(ctx context.Context) (string, error) {
	resp, err := h.doRequest(ctx, http.MethodDelete, "/api/v1/delete-excel", nil)
	if err != nil {
		return "", err
	}
	return h.parseMessage(resp)
}

// Files возвращает сведения о файле. Success=false означает, что файла нет.
func (h *httpClient) Files(ctx context.Context) (FileInfo, error) {
	var out FileInfo
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/files", nil)
	if err != nil {
		return out, err
	}
	return out, h.parseResponse(resp, &out)
}

func (h *httpClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	return req, nil
}

func (h *httpClient) send(req *http.Request) (*http.Response, error) {
	h.log.Debug("Отправка запроса",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	return resp, nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := h.newRequest(ctx, method, path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.send(req)
}

func (h *httpClient) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("Получен ответ",
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", resp.Header.Get("X-Request-Id")),
	)

	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(http.StatusText(resp.StatusCode))
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}
	return nil
}

func (h *httpClient) parseMessage(resp *http.Response) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := h.parseResponse(resp, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
