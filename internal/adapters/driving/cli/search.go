package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/websearch-cli/internal/logger"
)

var searchCmd = &cobra.Command{
	Use:   "search [prompt]",
	Short: "Answer a prompt from web search summaries",
	Long: `Runs one web search for the prompt and streams an answer built from
the provider's result summaries. Fast and surface-level; use deepsearch
when the answer should be grounded in full page content.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var deepsearchCmd = &cobra.Command{
	Use:   "deepsearch [prompt]",
	Short: "Answer a prompt by reading the web",
	Long: `Expands the prompt into several queries, searches the web, fetches
and chunks the result pages, retrieves the chunks most relevant to the
prompt, and streams an answer grounded in them.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeepSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(deepsearchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	out := cmd.OutOrStdout()

	_, err = a.research.Search(cmd.Context(), args[0], func(token string) {
		fmt.Fprint(out, token)
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Fprintln(out)
	logger.Debug("Search finished in %s", elapsed(start))
	return nil
}

func runDeepSearch(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	out := cmd.OutOrStdout()

	_, err = a.research.DeepSearch(cmd.Context(), args[0], func(token string) {
		fmt.Fprint(out, token)
	})
	if err != nil {
		return fmt.Errorf("deep search failed: %w", err)
	}

	fmt.Fprintln(out)
	logger.Debug("Deep search finished in %s", elapsed(start))
	return nil
}
