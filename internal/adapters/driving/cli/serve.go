package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/websearch-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/websearch-cli/internal/adapters/driving/httpapi"
)

// DefaultServerAddr is where the HTTP API listens when unconfigured.
const DefaultServerAddr = ":8080"

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves the research pipeline over HTTP.

POST /search      {"query": "..."}  -> {"answer": "..."}
POST /deepsearch  {"query": "..."}  -> server-sent events, one token per
                                       event, terminated by [DONE]

One search runs at a time; concurrent requests are rejected with 400.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "listen address (default :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	addr := flagServeAddr
	if addr == "" {
		addr = configfile.Resolve(configStore).ServerAddr
	}
	if addr == "" {
		addr = DefaultServerAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := httpapi.NewServer(a.research)
	return server.StartWithGracefulShutdown(ctx, addr, 10*time.Second)
}
