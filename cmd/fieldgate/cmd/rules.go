package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fieldgate/fieldgate/internal/config"
	"github.com/fieldgate/fieldgate/internal/domain/validation"
)

var rulesSelfTest bool

// ruleSummary is the YAML rendering of one active rule.
type ruleSummary struct {
	Kind                string   `yaml:"kind"`
	Pattern             string   `yaml:"pattern,omitempty"`
	AllowedClasses      []string `yaml:"allowed_classes,omitempty"`
	MinLength           int      `yaml:"min_length"`
	MaxLength           int      `yaml:"max_length"`
	MustStartWithLetter bool     `yaml:"must_start_with_letter,omitempty"`
	Schemes             []string `yaml:"schemes,omitempty"`
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the active validation rules",
	Long: `Print the active validation rules as YAML.

Each rule shows the compiled pattern, the allowed character classes
the rejection text is derived from, and the length bounds.

With --selftest the command also proves that every rule's pattern
accepts exactly the characters its class list describes, and exits
non-zero on any mismatch.

Examples:
  fieldgate rules
  fieldgate rules --selftest`,
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesSelfTest, "selftest", false, "run the pattern/description consistency self-test")
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
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

	summaries := make([]ruleSummary, 0, len(registry.Rules()))
	for _, kind := range validation.Kinds() {
		rule, err := registry.Describe(kind)
		if err != nil {
			return err
		}
		s := ruleSummary{
			Kind:                kind.String(),
			AllowedClasses:      rule.AllowedClasses(),
			MinLength:           rule.MinLength,
			MaxLength:           rule.MaxLength,
			MustStartWithLetter: rule.MustStartWithLetter,
			Schemes:             rule.Schemes,
		}
		if rule.Pattern != nil {
			s.Pattern = rule.Pattern.String()
		}
		summaries = append(summaries, s)
	}

	out, err := yaml.Marshal(summaries)
	if err != nil {
		return err
	}
	fmt.Print(string(out))

	if rulesSelfTest {
		if err := registry.SelfTest(); err != nil {
			fmt.Fprintf(os.Stderr, "self-test failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("self-test: ok")
	}
	return nil
}
