package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	configfile "github.com/custodia-labs/websearch-cli/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and edit the configuration file (default ~/.websearch/config.toml).

API keys can also be supplied through the environment (TAVILY_API_KEY,
OPENAI_API_KEY) or a .env file; values in the config file take priority.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value by dotted key, e.g.

  websearch config set llm.model gpt-4o
  websearch config set search.top_k 15
  websearch config set cache.enabled true`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [service]",
	Short: "Set an API key without echoing it",
	Long: `Prompt for an API key and store it in the config file.

Services: tavily, llm, embedding`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetKey,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetKeyCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	settings := configfile.Resolve(configStore)

	cmd.Printf("Config file: %s\n\n", configStore.Path())

	cmd.Println("[Provider]")
	cmd.Printf("  Tavily API key: %s\n", keyStatus(settings.TavilyAPIKey))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  API key: %s\n", keyStatus(settings.LLMAPIKey))
	cmd.Printf("  Model: %s\n", orDefault(settings.LLMModel, "gpt-4o-mini"))
	if settings.LLMBaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLMBaseURL)
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", orDefault(settings.EmbeddingProvider, "openai"))
	cmd.Printf("  Model: %s\n", orDefault(settings.EmbeddingModel, "text-embedding-3-small"))
	if settings.EmbeddingBaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.EmbeddingBaseURL)
	}
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Top K: %s\n", orDefaultInt(settings.TopK, 10))
	cmd.Printf("  Max auxiliary queries: %s\n", orDefaultInt(settings.MaxAuxiliary, 3))
	cmd.Printf("  Concurrency: %s\n", orDefaultInt(settings.Concurrency, 4))
	cmd.Println()

	cmd.Println("[Cache]")
	if settings.CacheEnabled {
		cmd.Println("  Enabled: yes")
	} else {
		cmd.Println("  Enabled: no")
	}

	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	key, raw := args[0], args[1]

	// Store typed values so numeric tunables round-trip as numbers.
	var value any = raw
	if raw == "true" || raw == "false" {
		value = raw == "true"
	} else if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		value = n
	} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
		value = f
	}

	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	var key string
	switch args[0] {
	case "tavily":
		key = configfile.KeyTavilyAPIKey
	case "llm":
		key = configfile.KeyLLMAPIKey
	case "embedding":
		key = configfile.KeyEmbeddingAPIKey
	default:
		return fmt.Errorf("unknown service %q (expected tavily, llm, or embedding)", args[0])
	}

	cmd.Printf("API key for %s: ", args[0])
	secret := readPassword()
	cmd.Println()

	if secret == "" {
		return fmt.Errorf("no key entered")
	}

	if err := configStore.Set(key, secret); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	cmd.Printf("Stored %s (%s)\n", key, maskAPIKey(secret))
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func keyStatus(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback + " (default)"
	}
	return value
}

func orDefaultInt(value, fallback int) string {
	if value == 0 {
		return fmt.Sprintf("%d (default)", fallback)
	}
	return fmt.Sprintf("%d", value)
}

