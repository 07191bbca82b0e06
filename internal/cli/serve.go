package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ragchat/internal/adapter/httpapi"
	"ragchat/internal/adapter/metrics"
	"ragchat/internal/adapter/telemetry"
	"ragchat/internal/port"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP chat API",
	Long: `Serve the chat API:

  POST /api/chat                       chat with documents
  POST /functions/v1/gemini-rag-chat   alias of /api/chat
  POST /api/retrieve                   retrieval only, no model call
  GET  /healthz                        liveness
  GET  /metrics                        Prometheus metrics

Examples:
  ragchat serve --addr :8080
  GEMINI_API_KEY=... ragchat serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, "ragchat", Version, cfg.Server.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	var recorder *metrics.Recorder
	var chatMetrics port.Metrics
	opts := []httpapi.Option{
		httpapi.WithLogger(logger),
		httpapi.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	}
	if cfg.Server.MetricsEnabled {
		recorder = metrics.NewRecorder()
		chatMetrics = recorder
		opts = append(opts, httpapi.WithMetrics(recorder))
	}

	retrieve := newRetrieveUseCase(cfg, chatMetrics)
	chat := newChatUseCase(ctx, cfg, retrieve, chatMetrics)
	server := httpapi.NewServer(chat, retrieve, opts...)

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	if cfg.Generator.APIKey() == "" {
		logger.Info().Str("env", cfg.Generator.KeyEnv()).Msg("no server-side API key, callers must send apiKey")
	}
	logger.Info().
		Str("provider", cfg.Generator.Provider).
		Str("model", cfg.Generator.Model).
		Msg("starting ragchat")

	return server.ListenAndServe(ctx, addr)
}
