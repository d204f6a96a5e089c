package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"campaign-editor/backend/internal/api"
	"campaign-editor/backend/internal/auth"
	"campaign-editor/backend/internal/config"
	"campaign-editor/backend/internal/editor"
	"campaign-editor/backend/internal/logging"
	"campaign-editor/backend/internal/mcp"
	"campaign-editor/backend/internal/repository"
	"campaign-editor/backend/internal/services"
	"campaign-editor/backend/internal/tls"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:          "campaign-editor",
		Short:        "Campaign editing sessions for Chutney",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, configFile)
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to config file (default ./config.yaml)")
	return cmd
}

func run(ctx context.Context, configFile string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("configuration loading failed: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		"environment", cfg.Environment,
		"chutney_url", cfg.Chutney.BaseURL,
		"store", cfg.Store.Backend,
		"okta_client_id", cfg.Auth.ClientID,
		"okta_domain", cfg.Auth.OktaDomain,
		"secret_len", len(cfg.Auth.ClientSecret),
		"swagger_client_id", cfg.Auth.SwaggerClientID,
	)
	if cfg.Auth.SwaggerClientID != "" && cfg.Auth.SwaggerClientID == cfg.Auth.ClientID {
		logger.Warn("Swagger client id matches the backend client id; PKCE login from Swagger UI will fail if the backend app requires a secret")
	}

	chutney := services.NewChutneyClient(cfg.Chutney.BaseURL, cfg.Chutney.Timeout)
	deps := editor.Dependencies{
		Campaigns:        chutney,
		Catalog:          chutney,
		Parameters:       chutney,
		Environments:     chutney,
		Tracker:          chutney,
		Linkages:         chutney,
		Logger:           logger,
		FetchConcurrency: cfg.Editor.FetchConcurrency,
	}

	var store api.Pinger
	if cfg.Store.Backend == config.StorePostgres {
		pool, err := repository.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("database initialization failed: %w", err)
		}
		defer pool.Close()
		if err := repository.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("database schema: %w", err)
		}
		repo := repository.NewPostgresCampaignStore(pool)
		deps.Campaigns = repo
		deps.Linkages = repo
		store = repo
		logger.Info("Database connected", "host", cfg.DB.Host, "name", cfg.DB.Name)
	}

	sessions, err := services.NewSessionService(deps, cfg.Editor.SessionIdleTimeout, logger)
	if err != nil {
		return fmt.Errorf("session service: %w", err)
	}
	if idle := cfg.Editor.SessionIdleTimeout; idle > 0 {
		go sessions.RunSweeper(ctx, max(idle/4, time.Second))
	}
	logger.Info("Service layer initialized")

	authz, err := auth.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("auth initialization failed: %w", err)
	}

	e := newEcho(cfg, logger, authz, sessions, store)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", server.Addr, "tls", cfg.TLS.Enable)
		if !cfg.TLS.Enable {
			serverErrors <- server.ListenAndServe()
			return
		}
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			serverErrors <- errors.New("TLS enabled but cert/key file not provided")
			return
		}
		if len(cfg.TLS.Hostnames) > 0 {
			created, err := tls.EnsureSelfSignedCert(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames)
			if err != nil {
				serverErrors <- fmt.Errorf("failed to generate self-signed cert: %w", err)
				return
			}
			if created {
				logger.Info("Generated self-signed certificate", "cert_file", cfg.TLS.CertFile, "hosts", cfg.TLS.Hostnames)
			}
		}
		serverErrors <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			if err := server.Close(); err != nil {
				logger.Error("Server close error", "error", err)
			}
		}
		logger.Info("Server stopped gracefully", "open_sessions", sessions.Len())
	}
	return nil
}

func newEcho(cfg *config.Config, logger *logging.Logger, authz *auth.Auth, sessions *services.SessionService, store api.Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("campaign-editor"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, "error", v.Error)...)
				return nil
			}
			logger.Debug("request", fields...)
			return nil
		},
	}))

	e.GET("/login", echo.WrapHandler(http.HandlerFunc(authz.LoginHandler)))
	e.GET("/auth/callback", echo.WrapHandler(http.HandlerFunc(authz.CallbackHandler)))
	e.GET("/logout", echo.WrapHandler(http.HandlerFunc(authz.LogoutHandler)))

	apiHandler := api.NewHandler(sessions, store, logger)
	e.GET("/health", echo.WrapHandler(http.HandlerFunc(apiHandler.HandleHealth)))

	apiGroup := e.Group("/api/v1")
	apiGroup.Use(echo.WrapMiddleware(authz.RequireAuth))
	api.RegisterHandlers(apiGroup, apiHandler)
	logger.Info("REST API handlers mounted")

	mcpServer := mcp.NewServer(sessions)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	requireAuth := echo.WrapMiddleware(authz.RequireAuth)
	e.Any("/mcp", echo.WrapHandler(mcpHandlers), requireAuth)
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers), requireAuth)
	logger.Info("MCP protocol handlers mounted")

	e.GET("/openapi.yaml", echo.WrapHandler(api.SpecHandler(api.DefaultSpecPath, cfg.Auth.OktaDomain)))
	e.GET("/docs", echo.WrapHandler(api.SwaggerHandler(cfg.Auth.OktaDomain, cfg.Auth.SwaggerClientID)))
	e.GET("/docs/oauth2-redirect.html", echo.WrapHandler(http.HandlerFunc(api.OAuthRedirectHandler)))
	return e
}
