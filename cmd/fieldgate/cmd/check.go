package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fieldgate/fieldgate/internal/adapter/outbound/audit"
	"github.com/fieldgate/fieldgate/internal/config"
	"github.com/fieldgate/fieldgate/internal/domain/validation"
	"github.com/fieldgate/fieldgate/internal/service"
)

var checkField string

var checkCmd = &cobra.Command{
	Use:   "check <kind> <value>",
	Short: "Validate a single value from the command line",
	Long: `Validate one value against the configured rules and print the outcome.

The kind must be one of: name, identifier, tool_name, uri.
Exit code is 0 when the value is accepted and 1 when it is rejected.

Examples:
  fieldgate check name "my.test.name"
  fieldgate check identifier "my test id"
  fieldgate check tool_name my_tool.v1
  fieldgate check uri https://example.com/tools`,
	Args: cobra.ExactArgs(2),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkField, "field", "Value", "field label used in the rejection reason")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	kind, err := validation.ParseFieldKind(args[0])
	if err != nil {
		return fmt.Errorf("%w (known kinds: %s)", err, strings.Join(kindNames(), ", "))
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	registry, err := validation.NewRegistry(cfg.RegistryConfig())
	if err != nil {
		return fmt.Errorf("failed to build validation rules: %w", err)
	}
	guards, err := buildGuards(cfg)
	if err != nil {
		return fmt.Errorf("failed to build guards: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewValidationService(validation.NewValidator(registry), guards, audit.NopStore{}, logger)

	outcome, err := svc.Validate(context.Background(), kind, args[1], checkField)
	if err != nil {
		return err
	}

	if outcome.Accepted {
		fmt.Println("accepted")
		return nil
	}

	fmt.Printf("rejected (%s): %s\n", outcome.Rejection.Signal, outcome.Rejection.Reason)
	os.Exit(1)
	return nil
}

func kindNames() []string {
	kinds := validation.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}
