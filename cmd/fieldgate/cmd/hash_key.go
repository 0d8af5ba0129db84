package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldgate/fieldgate/internal/domain/auth"
)

var hashKeyArgon2id bool

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key [api-key]",
	Short: "Generate SHA256 hash for an API key",
	Long: `Generate a hash of an API key for use in config.

The default output format is "sha256:<hex>" which can be directly
used in the auth.api_key_hashes list. With --argon2id the key is
hashed with Argon2id instead.

Example:
  fieldgate hash-key "my-secret-api-key"
  # Output: sha256:7d5e8c...

Security note: The key will appear in shell history.
Consider clearing history after use or using environment variable:
  fieldgate hash-key "$MY_API_KEY"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if hashKeyArgon2id {
			hash, err := auth.HashKeyArgon2id(args[0])
			if err != nil {
				return fmt.Errorf("failed to hash key: %w", err)
			}
			fmt.Println(hash)
			return nil
		}
		fmt.Println(auth.HashKey(args[0]))
		return nil
	},
}

func init() {
	hashKeyCmd.Flags().BoolVar(&hashKeyArgon2id, "argon2id", false, "use Argon2id instead of SHA256")
	rootCmd.AddCommand(hashKeyCmd)
}
