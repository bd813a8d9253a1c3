package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loanlab/underwriter/internal/config"
	"github.com/loanlab/underwriter/internal/logger"
	"github.com/loanlab/underwriter/pkg/httpapi"
	"github.com/loanlab/underwriter/pkg/inference"
	"github.com/loanlab/underwriter/pkg/underwriting"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the underwriting HTTP server",
	Long: `Start the underwriting HTTP server. The server exposes the orchestrator
endpoint, the sample application, and a health check. It runs until
interrupted and drains in-flight requests on shutdown.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   true,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	orchestrator, err := buildOrchestrator(cfg, log)
	if err != nil {
		return err
	}

	server, err := httpapi.NewServer(httpapi.Options{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		RequestTimeout:     time.Duration(cfg.Server.RequestTimeout) * time.Second,
	}, orchestrator, log.GetZerolog())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		return server.Stop()
	case err := <-errCh:
		return err
	}
}

// buildOrchestrator wires provider, gateway, and agents from config.
func buildOrchestrator(cfg *config.Config, log *logger.Logger) (*underwriting.Orchestrator, error) {
	provider, err := inference.NewProvider(inference.Options{
		Provider: cfg.Inference.Provider,
		APIKey:   cfg.Inference.APIKey,
		BaseURL:  cfg.Inference.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create inference provider: %w", err)
	}

	gateway, err := inference.New(inference.Config{
		Provider:       provider,
		MaxRetries:     cfg.Inference.MaxRetries,
		InitialBackoff: time.Duration(cfg.Inference.InitialBackoffMs) * time.Millisecond,
		Logger:         log.GetZerolog(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create inference gateway: %w", err)
	}

	orchestrator, err := underwriting.NewOrchestrator(underwriting.Config{
		Caller:      gateway,
		Model:       cfg.Inference.Model,
		Temperature: cfg.Inference.Temperature,
		MaxTokens:   cfg.Inference.MaxTokens,
		Logger:      log.GetZerolog(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	return orchestrator, nil
}
