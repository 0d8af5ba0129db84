package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and
// environment variables. If configFile is empty, it searches for
// fieldgate.yaml/.yml in standard locations. The search requires an
// explicit YAML extension so the binary itself is never matched.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file in any standard location. Set name/type
		// without search paths so ReadInConfig returns
		// ConfigFileNotFoundError, which callers treat as defaults.
		viper.SetConfigName("fieldgate")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: FIELDGATE_SERVER_ADDR etc.
	viper.SetEnvPrefix("FIELDGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for a fieldgate config
// file with an explicit YAML extension (.yaml or .yml).
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".fieldgate"),
		"/etc/fieldgate",
	}
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "fieldgate"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds nested config keys for environment variable
// support. Example: FIELDGATE_SERVER_ADDR overrides server.addr.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("server.addr")
	_ = viper.BindEnv("server.log_level")

	_ = viper.BindEnv("validation.name.min_length")
	_ = viper.BindEnv("validation.name.max_length")
	_ = viper.BindEnv("validation.identifier.min_length")
	_ = viper.BindEnv("validation.identifier.max_length")
	_ = viper.BindEnv("validation.tool_name.min_length")
	_ = viper.BindEnv("validation.tool_name.max_length")
	_ = viper.BindEnv("validation.uri.min_length")
	_ = viper.BindEnv("validation.uri.max_length")
	// Note: validation.uri.schemes is an array, handled by Viper's env parsing.

	_ = viper.BindEnv("audit.enabled")
	_ = viper.BindEnv("audit.path")
	_ = viper.BindEnv("audit.retention_days")

	_ = viper.BindEnv("tracing.enabled")
}

// ConfigFileUsed returns the config file path Viper loaded, if any.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
