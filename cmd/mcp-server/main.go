// Command mcp-server runs the MCP conformance reference server: the
// Streamable HTTP transport, the fixture catalogs, and the mock OAuth
// authorization server, behind the Auth/Origin Gate.
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
	"github.com/go-chi/httplog/v2"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/modelcontext/refserver/auth"
	"github.com/modelcontext/refserver/fixtures"
	"github.com/modelcontext/refserver/internal/config"
	"github.com/modelcontext/refserver/logx"
	"github.com/modelcontext/refserver/oauth"
	"github.com/modelcontext/refserver/protocol"
	"github.com/modelcontext/refserver/server"
	"github.com/modelcontext/refserver/transport/streamablehttp"
	"github.com/modelcontext/refserver/types"
)

func main() {
	if err := newServeCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var host string
	var port int
	var apiKey string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP conformance reference server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("api-key") {
				cfg.APIKey = apiKey
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "bind host (overrides MCP_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "bind port (overrides MCP_PORT)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "bearer token required of clients (overrides MCP_API_KEY)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides MCP_LOG_LEVEL)")

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logger := logx.NewLogger(cfg.LogLevel)

	srv := server.NewServer("mcp-conformance-reference-server",
		server.WithLogger(logger),
		server.WithInstructions("Deterministic MCP reference server for client-library conformance testing."),
	)
	random := fixtures.RegisterAll(srv)

	c := cron.New()
	if _, err := c.AddFunc("@every 5s", random.Mutate); err != nil {
		return fmt.Errorf("scheduling test://dynamic/random mutator: %w", err)
	}
	c.Start()
	defer c.Stop()

	issuer := fmt.Sprintf("http://%s", cfg.Addr())
	oauthSrv, err := oauth.NewServer(issuer, logger)
	if err != nil {
		return fmt.Errorf("initializing mock OAuth server: %w", err)
	}

	gate := auth.NewGate(auth.GateConfig{APIKey: cfg.APIKey, Logger: logger})
	httpLogger := httplog.NewLogger("mcp-server", httplog.Options{
		LogLevel: loggerLevel(cfg.LogLevel),
		Concise:  true,
	})

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(httplog.RequestLogger(httpLogger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mcpHandler := streamablehttp.NewHandler(srv, streamablehttp.WithContextFunc(
		func(ctx context.Context, r *http.Request) context.Context {
			return types.WithRemoteAddr(ctx, r.RemoteAddr)
		},
	))
	router.With(gate.Wrap).Handle("/mcp", mcpHandler)

	// Discovery, registration, and the token endpoints are never gated: a client
	// needs to reach them to obtain the bearer token the Gate then checks on /mcp.
	router.Get("/.well-known/oauth-protected-resource", oauthSrv.ProtectedResourceMetadata)
	router.Get("/.well-known/oauth-authorization-server", oauthSrv.AuthorizationServerMetadata)
	router.Route("/oauth", func(r chi.Router) {
		r.Post("/register", oauthSrv.Register)
		r.Get("/authorize", oauthSrv.Authorize)
		r.Post("/token", oauthSrv.Token)
		r.Get("/jwks", oauthSrv.JWKS)
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	server.PrintBanner()
	logger.Info("Protocol version: %s", protocol.CurrentProtocolVersion)
	logger.Info("Listening on %s", cfg.Addr())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
			return
		}
		listenErr <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return <-listenErr
	case err := <-listenErr:
		return err
	}
}

func loggerLevel(level string) slog.Level {
	switch level {
	case "trace", "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
