package logger

import (
	"os"
	"strings"

	"excelkeeper/internal/app/server/config"

	"golang.org/x/exp/slog"
)

// New создает логгер для окружения: local - цветной вывод, dev - JSON debug, prod - JSON info.
func New(env string) *slog.Logger {
	return NewWithLevel(env, "")
}

// NewWithLevel как New, но непустой level (debug, info, warn, error) переопределяет уровень окружения.
func NewWithLevel(env, level string) *slog.Logger {
	lvl, ok := parseLevel(level)

	switch env {
	case config.EnvProd:
		if !ok {
			lvl = slog.LevelInfo
		}
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	case config.EnvDev:
		if !ok {
			lvl = slog.LevelDebug
		}
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	default:
		if !ok {
			return setupPrettySlog()
		}
		return newPretty(lvl)
	}
}

func setupPrettySlog() *slog.Logger {
	return newPretty(slog.LevelDebug)
}

func newPretty(lvl slog.Level) *slog.Logger {
	opts := PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: lvl},
	}
	return slog.New(opts.NewPrettyHandler(os.Stdout))
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Err атрибут ошибки для единообразного ключа "error".
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
