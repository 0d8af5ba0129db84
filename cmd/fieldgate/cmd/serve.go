package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/fieldgate/fieldgate/internal/adapter/inbound/http"
	"github.com/fieldgate/fieldgate/internal/adapter/outbound/audit"
	celguard "github.com/fieldgate/fieldgate/internal/adapter/outbound/cel"
	"github.com/fieldgate/fieldgate/internal/config"
	"github.com/fieldgate/fieldgate/internal/domain/auth"
	"github.com/fieldgate/fieldgate/internal/domain/validation"
	"github.com/fieldgate/fieldgate/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validation HTTP server",
	Long: `Start the FieldGate HTTP server.

The server exposes:
  POST /v1/validate        Validate a single field
  POST /v1/validate/batch  Validate a batch of fields
  GET  /v1/rejections      Recent rejection audit events
  GET  /healthz            Health check (runs the registry self-test)
  GET  /metrics            Prometheus metrics

Examples:
  # Start with config file settings
  fieldgate serve

  # Start with a specific config file
  fieldgate --config /path/to/config.yaml serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()

	if cfg.Tracing.Enabled {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(tp)
		defer func() { _ = tp.Shutdown(context.Background()) }()
		logger.Info("tracing enabled", "exporter", "stdout")
	}

	registry, err := validation.NewRegistry(cfg.RegistryConfig())
	if err != nil {
		return fmt.Errorf("failed to build validation rules: %w", err)
	}
	if err := registry.SelfTest(); err != nil {
		return fmt.Errorf("rule self-test failed: %w", err)
	}

	guards, err := buildGuards(cfg)
	if err != nil {
		return fmt.Errorf("failed to build guards: %w", err)
	}
	if guards != nil {
		logger.Info("guard expressions compiled", "count", guards.Len())
	}

	var store audit.Store = audit.NopStore{}
	if cfg.Audit.Enabled {
		sqliteStore, err := audit.NewSQLiteStore(audit.Config{
			Path:          cfg.Audit.Path,
			RetentionDays: cfg.Audit.RetentionDays,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to open audit store: %w", err)
		}
		store = sqliteStore
		logger.Info("audit trail enabled", "path", cfg.Audit.Path, "retention_days", cfg.Audit.RetentionDays)
	}
	defer func() { _ = store.Close() }()

	svc := service.NewValidationService(validation.NewValidator(registry), guards, store, logger)

	keyring := auth.NewKeyring(cfg.Auth.APIKeyHashes)
	if !keyring.Empty() {
		logger.Info("api key authentication enabled", "keys", len(cfg.Auth.APIKeyHashes))
	}

	server := http.NewServer(svc, registry,
		http.WithAddr(cfg.Server.Addr),
		http.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		http.WithKeyring(keyring),
		http.WithVersion(Version),
		http.WithLogger(logger),
	)

	logger.Info("fieldgate starting",
		"version", Version,
		"addr", cfg.Server.Addr,
		"kinds", len(registry.Rules()),
		"audit", cfg.Audit.Enabled,
		"tracing", cfg.Tracing.Enabled,
	)

	if err := server.Start(ctx); err != nil {
		return err
	}
	logger.Info("fieldgate stopped")
	return nil
}

// buildGuards compiles the configured CEL guard expressions. Returns
// nil when no guards are configured.
func buildGuards(cfg *config.Config) (*celguard.GuardSet, error) {
	if len(cfg.Validation.Guards) == 0 {
		return nil, nil
	}

	specs := make([]celguard.GuardSpec, 0, len(cfg.Validation.Guards))
	for _, g := range cfg.Validation.Guards {
		kind, err := validation.ParseFieldKind(g.Kind)
		if err != nil {
			return nil, err
		}
		specs = append(specs, celguard.GuardSpec{Kind: kind, Expression: g.Expression})
	}
	return celguard.NewGuardSet(specs)
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
