// Package api собирает HTTP-шлюз:
//
//	POST   /api/v1/login         # вход по паролю (публичный, лимит неудачных попыток)
//	GET    /api/v1/verify-token  # проверка токена
//	POST   /api/v1/new-password  # смена пароля гостя (admin)
//	POST   /api/v1/upload-excel  # загрузка файла (admin, лимит загрузок)
//	GET    /api/v1/get-excel     # скачивание файла (auth)
//	DELETE /api/v1/delete-excel  # удаление файла (admin)
//	GET    /api/v1/files         # сведения о файле (auth)
//	GET    /api/v1/health        # состояние пула БД (публичный)
package api

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"excelkeeper/internal/app/server/api/http/apierr"
	credentialAPI "excelkeeper/internal/app/server/api/http/credential"
	excelAPI "excelkeeper/internal/app/server/api/http/excel"
	healthAPI "excelkeeper/internal/app/server/api/http/health"
	"excelkeeper/internal/app/server/api/http/middleware"
	"excelkeeper/internal/app/server/api/http/middleware/auth"
	"excelkeeper/internal/app/server/api/http/middleware/logger"
	"excelkeeper/internal/app/server/api/http/middleware/throttle"
	"excelkeeper/internal/app/server/config"
	"excelkeeper/internal/domain/credential"
	"excelkeeper/internal/domain/excel"
	"excelkeeper/internal/domain/token"
	"excelkeeper/internal/infrastructure/storage/postgres"
	"excelkeeper/internal/ratelimit"
	"excelkeeper/internal/utils/clientip"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/exp/slog"
)

// Services доменные сервисы, которые обслуживает шлюз.
type Services struct {
	Health     healthAPI.Checker
	Credential credential.Servicer
	Excel      excel.Servicer
	Token      token.Servicer
}

type Handlers struct {
	Health     *healthAPI.Handler
	Credential *credentialAPI.Handler
	Excel      *excelAPI.Handler
}

// NewServices связывает сервисы с репозиториями PostgreSQL.
func NewServices(cfg *config.Config, storage *postgres.Storage, log *slog.Logger) Services {
	credentialRepo := postgres.NewCredentialRepository(storage, log)
	fileRepo := postgres.NewFileRepository(storage, log)

	return Services{
		Health:     storage,
		Credential: credential.NewService(credentialRepo, credential.NewPasswordValidator(), log),
		Excel:      excel.NewService(fileRepo, log),
		Token:      token.NewService(cfg.Auth.JWTSecret, token.WithTTL(cfg.Auth.TokenTTL)),
	}
}

// New создает *chi.Mux со всеми операциями, зарегистрированными через huma.Register.
func New(cfg config.Server, svc Services, limiters ratelimit.Set, log *slog.Logger) (*chi.Mux, error) {
	trusted, err := clientip.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	apierr.Install()

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recover(log))
	mux.Use(middleware.SecurityHeaders)
	mux.Use(clientip.Middleware(trusted))
	if len(cfg.CORSOrigins) > 0 {
		mux.Use(corsHandler(cfg.CORSOrigins))
	}
	// multipart huma читает мимо MaxBodyBytes операции, поэтому лимит ставится на само тело.
	mux.Use(middleware.LimitBody(excelAPI.UploadBodyLimit, excelAPI.UploadPath))
	mux.Use(throttle.New(limiters.General, throttle.MessageGeneral, log).Handler)

	humaCfg := huma.DefaultConfig("Excelkeeper API", "1.0.0")
	humaCfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
	}
	// Без $schema в телах ответов: клиенты ждут прежний формат JSON.
	humaCfg.CreateHooks = nil

	API := humachi.New(mux, humaCfg)

	h := handlers(svc, limiters, log)
	h.Health.SetupRoutes(API)
	h.Credential.SetupRoutes(API)
	h.Excel.SetupRoutes(API)

	mux.NotFound(fallback(cfg.StaticDir))

	return mux, nil
}

// publicCORSPaths не получают Access-Control-Allow-Credentials: там токен только выдается или проверяется.
var publicCORSPaths = map[string]struct{}{
	"/api/v1/login":        {},
	"/api/v1/verify-token": {},
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", middleware.RequestIDHeader, "Retry-After"},
		MaxAge:         300,
	}
	public := cors.New(opts)
	opts.AllowCredentials = true
	private := cors.New(opts)

	return func(next http.Handler) http.Handler {
		pub, priv := public.Handler(next), private.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicCORSPaths[path.Clean("/"+r.URL.Path)]; ok {
				pub.ServeHTTP(w, r)
				return
			}
			priv.ServeHTTP(w, r)
		})
	}
}

func handlers(svc Services, limiters ratelimit.Set, log *slog.Logger) *Handlers {
	authMW := auth.New(svc.Token, log)
	loggerMW := logger.New(log).Middleware()
	loginLimit := throttle.New(limiters.Login, throttle.MessageLogin, log)
	uploadLimit := throttle.New(limiters.Upload, throttle.MessageUpload, log)
	middlewares := middleware.NewContainer()

	healthHandler := healthAPI.NewHandler(svc.Health, log, middlewares.Add(loggerMW).GetAllAndClear())

	credentialHandler := credentialAPI.NewHandler(svc.Credential, svc.Token, log, credentialAPI.Middlewares{
		Login:  middlewares.Add(loggerMW, loginLimit.FailuresOnly()).GetAllAndClear(),
		Verify: middlewares.Add(loggerMW).GetAllAndClear(),
		Admin:  middlewares.Add(loggerMW, authMW.AdminMiddleware()).GetAllAndClear(),
	})

	excelHandler := excelAPI.NewHandler(svc.Excel, log, excelAPI.Middlewares{
		Read:   middlewares.Add(loggerMW, authMW.Middleware()).GetAllAndClear(),
		Admin:  middlewares.Add(loggerMW, authMW.AdminMiddleware()).GetAllAndClear(),
		Upload: middlewares.Add(loggerMW, authMW.AdminMiddleware(), uploadLimit.Middleware()).GetAllAndClear(),
	})

	return &Handlers{
		Health:     healthHandler,
		Credential: credentialHandler,
		Excel:      excelHandler,
	}
}

// fallback отдает статику из dir, неизвестные пути /api получают 404 JSON, остальные редирект на "/".
func fallback(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))

	return func(w http.ResponseWriter, r *http.Request) {
		p := path.Clean("/" + r.URL.Path)
		if p == "/api" || strings.HasPrefix(p, "/api/") {
			apierr.WriteHTTP(w, apierr.NotFound("Endpoint no encontrado"))
			return
		}

		if dir != "" && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
			if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p))); err == nil && (!info.IsDir() || p == "/") {
				files.ServeHTTP(w, r)
				return
			}
		}

		if p == "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	}
}
