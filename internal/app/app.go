package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"taskboard/internal/config"
	"taskboard/internal/handlers"
	"taskboard/internal/logger"
	"taskboard/internal/middleware"
	"taskboard/internal/service"
	"taskboard/internal/session"
	"taskboard/internal/storage"
	"taskboard/internal/worker"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type App struct {
	config      *config.Config
	server      *http.Server
	handler     http.Handler
	store       storage.Store
	taskService *service.TaskService
	authService *service.AuthService
	sessions    *session.Authority
	worker      *worker.OverdueWorker
	shutdowns   []func() // функции для graceful shutdown, выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.config.Validate(); err != nil {
		return nil, fmt.Errorf("проверка конфига: %w", err)
	}

	store, err := storage.Open(ctx, a.config.Database)
	if err != nil {
		return nil, fmt.Errorf("подключение к хранилищу: %w", err)
	}
	a.store = store
	a.shutdowns = append(a.shutdowns, store.Close)

	a.taskService = service.NewTaskService(store)
	a.authService = service.NewAuthService(store)
	a.sessions = session.New(
		a.config.Auth.Secret,
		a.config.Auth.TokenTTL,
		a.config.Auth.Issuer,
		session.WithCookieName(a.config.Auth.CookieName),
	)

	if a.config.Worker.Enabled {
		a.worker = worker.NewOverdueWorker(store, a.config.Worker.Interval, a.config.Worker.BatchSize)
	}

	a.handler = otelhttp.NewHandler(a.routes(), "taskboard")
	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.handler,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("App: Инициализация завершена",
		zap.String("driver", a.config.Database.Driver),
		zap.Bool("worker", a.worker != nil))
	return a, nil
}

func (a *App) routes() *chi.Mux {
	taskHandler := handlers.NewTaskHandler(a.taskService)
	authHandler := handlers.NewAuthHandler(a.authService, a.sessions, a.config.Auth.SecureCookie)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	if a.config.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(a.config.Server.RequestTimeout))
	}
	if len(a.config.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", taskHandler.HealthCheck)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/session", authHandler.Session)
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Use(middleware.RequireSession(a.sessions))

		r.Get("/", taskHandler.ListTasks)
		r.Post("/", taskHandler.CreateTask)
		r.Put("/", taskHandler.UpdateTask)
		r.Delete("/", taskHandler.DeleteTask)
	})

	return r
}

func (a *App) Router() http.Handler {
	return a.handler
}

// Run блокируется до отмены ctx или падения сервера, затем останавливает всё по очереди
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	serverErr := make(chan error, 1)
	var wg conc.WaitGroup

	wg.Go(func() {
		logger.Info("Server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	})

	if a.worker != nil {
		wg.Go(func() {
			a.worker.Start(workerCtx)
		})
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("App: Получен сигнал остановки")
	case err := <-serverErr:
		logger.Error("App: Сервер остановился с ошибкой", err)
		runErr = fmt.Errorf("запуск сервера: %w", err)
	}

	stopWorker()

	shutdownTimeout := a.config.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("App: Ошибка graceful shutdown", err)
		if runErr == nil {
			runErr = fmt.Errorf("остановка сервера: %w", err)
		}
	}

	wg.Wait()
	a.Shutdown()
	return runErr
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
