package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/promptalchemy/promptalchemy/internal/studio"
	"github.com/promptalchemy/promptalchemy/internal/studio/backend"
)

var keysShowFull bool

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider API keys",
	Long: `Manage the provider API keys the backend persists to its env file.

Keys are shown masked by default. Use --full on "keys get" to print the
raw value.`,
}

var keysGetCmd = &cobra.Command{
	Use:   "get [provider]",
	Short: "Fetch the stored API key for a provider",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := resolveProviderArg(args)
		if err != nil {
			return err
		}

		client := backend.NewClient(viper.GetString("studio.backend_url"))
		key, err := client.FetchKey(cmd.Context(), provider)
		if err != nil {
			return fmt.Errorf("fetch %s key: %w", provider.Label(), err)
		}

		if key == "" {
			fmt.Printf("%s: no key stored\n", provider.Label())
			return nil
		}

		if keysShowFull {
			fmt.Printf("%s: %s\n", provider.Label(), key)
		} else {
			fmt.Printf("%s: %s\n", provider.Label(), studio.MaskKey(key))
		}
		return nil
	},
}

var keysSetCmd = &cobra.Command{
	Use:   "set [provider] [key]",
	Short: "Store an API key for a provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := resolveProviderArg(args[:1])
		if err != nil {
			return err
		}
		key := strings.TrimSpace(args[1])
		if key == "" {
			return fmt.Errorf("key must not be empty")
		}

		client := backend.NewClient(viper.GetString("studio.backend_url"))
		if err := client.PushKey(cmd.Context(), provider, key); err != nil {
			return fmt.Errorf("store %s key: %w", provider.Label(), err)
		}

		fmt.Printf("%s: stored %s\n", provider.Label(), studio.MaskKey(key))
		return nil
	},
}

// resolveProviderArg parses the provider positional argument, falling back to
// the configured default provider when omitted.
func resolveProviderArg(args []string) (studio.Provider, error) {
	raw := viper.GetString("studio.default_provider")
	if len(args) > 0 {
		raw = args[0]
	}

	provider, ok := studio.ParseProvider(strings.ToLower(strings.TrimSpace(raw)))
	if !ok {
		names := make([]string, 0, 3)
		for _, p := range studio.Providers() {
			names = append(names, string(p))
		}
		return "", fmt.Errorf("unknown provider %q (known: %s)", raw, strings.Join(names, ", "))
	}
	return provider, nil
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGetCmd)
	keysCmd.AddCommand(keysSetCmd)

	keysGetCmd.Flags().BoolVar(&keysShowFull, "full", false, "print the raw key instead of the masked form")
}
