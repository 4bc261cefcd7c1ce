package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/zala-app/content-engine/pkg/zalacontent"
	"github.com/zala-app/content-engine/pkg/zalacontent/api"
	"github.com/zala-app/content-engine/pkg/zalacontent/config"
)

// AppConfig holds server-binary settings not covered by the config package's
// URL-based environment loading.
type AppConfig struct {
	JWTSecret string `env:"JWT_SECRET" env-default:"dev-secret"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var appCfg AppConfig
	if err := cleanenv.ReadEnv(&appCfg); err != nil {
		slog.Error("Failed to read environment", "error", err)
		os.Exit(1)
	}

	serverConfig, err := config.Load(config.WithEnv(""))
	if err != nil {
		slog.Error("Failed to load server configuration", "error", err)
		os.Exit(1)
	}

	svc, repo, store, err := serverConfig.BuildService()
	if err != nil {
		slog.Error("Failed to build service", "error", err)
		os.Exit(1)
	}

	scheduler := serverConfig.BuildScheduler(svc, repo)

	// Publication sweep runs until shutdown
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go scheduler.Run(schedCtx)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: routes(serverConfig, appCfg, svc, store),
	}

	go func() {
		slog.Info("Content engine starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"database", serverConfig.DatabaseType,
			"storage", serverConfig.StorageType,
			"scheduler_interval", serverConfig.SchedulerInterval)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}

func routes(cfg *config.ServerConfig, appCfg AppConfig, svc zalacontent.Service, store zalacontent.BlobStore) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS for development
	if cfg.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = appCfg.JWTSecret
	}
	tokenAuth := api.NewTokenAuth(secret)
	identity := api.NewJWTIdentityProvider()

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{"status": "ok"})
	})

	contentHandler := api.NewContentHandler(svc, store, identity)
	postHandler := api.NewPostHandler(svc, identity)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(api.Verifier(tokenAuth))
		r.Mount("/content", contentHandler.Routes())
		r.Mount("/posts", postHandler.Routes())
	})

	return r
}
