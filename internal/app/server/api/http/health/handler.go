package health

import (
	"context"
	"time"

	"excelkeeper/internal/infrastructure/storage/postgres"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

type Checker interface {
	HealthCheck(ctx context.Context, opts ...postgres.QueryOption) (postgres.Health, error)
}

type Handler struct {
	checker    Checker
	log        *slog.Logger
	middleware huma.Middlewares
	now        func() time.Time
}

func NewHandler(checker Checker, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		checker:    checker,
		log:        log,
		middleware: middleware,
		now:        time.Now,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
}

// healthCheck всегда отвечает 200, состояние БД передается в поле status.
// Одна попытка без повторов: ответ не ждет backoff недоступной БД.
func (h *Handler) healthCheck(ctx context.Context, _ *Input) (*Output, error) {
	h.log.Debug("health check request received")

	status := StatusHealthy
	hc, err := h.checker.HealthCheck(context.WithoutCancel(ctx), postgres.WithAttempts(1))
	if err != nil || !hc.Healthy {
		status = StatusUnhealthy
	}

	return &Output{
		Body: Response{
			Success:   true,
			Status:    status,
			Timestamp: h.now().UTC(),
			Pool:      hc.Pool,
		},
	}, nil
}
