package cli

import (
	"github.com/spf13/cobra"

	"github.com/Tanishka82/nexa-app/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server that exposes the coaching API under /api/v1.

Public endpoints:
- GET /health: Database, model and circuit breaker status
- GET /stats: Cache and rate limiting info

Owner-scoped endpoints require the X-Owner-ID header. When API keys are
configured every /api/v1 request also needs X-API-Key or a Bearer token.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().Bool("no-watch", false, "Do not reload prompt files on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Server.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	noWatch, _ := cmd.Flags().GetBool("no-watch")

	rt, err := newRuntime(cmd.Context(), cfg, logger, runtimeOptions{
		observability: true,
		watchPrompts:  !noWatch,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := server.NewServer(cfg, server.ServerConfigFrom(cfg, Version), server.Deps{
		Coach:         rt.coach,
		AI:            rt.ai,
		DB:            rt.db,
		Observability: rt.observability,
	}, logger)
	return srv.Start()
}
