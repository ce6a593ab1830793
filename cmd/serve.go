package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bffgate/internal/app"
)

// serveDebug enables debug logging regardless of logging.level.
var serveDebug bool

// serveCmd starts the gateway.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session gateway",
	Long: `Runs the gateway until it receives SIGINT or SIGTERM.

Every request's session cookie is decrypted and checked. When the access
token expires within the refresh window the gateway exchanges the refresh
token at {authority}/as/token.oauth2, re-issues the cookie and forwards the
request with the new token. A failed refresh clears the cookie and the
request continues unauthenticated.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := app.NewApplication(app.NewConfig(configPath, envFiles, serveDebug))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
}
