package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"bffgate/internal/config"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfigError indicates the configuration could not be loaded or is invalid.
	ExitCodeConfigError = 2
)

var (
	// configPath is the gateway configuration file shared by all commands.
	configPath string
	// envFiles are dotenv files loaded before the configuration is read.
	envFiles []string
)

// rootCmd represents the base command for the bffgate application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bffgate",
	Short: "Session gateway that keeps browser sessions' OAuth tokens fresh",
	Long: `bffgate is a backend-for-frontend gateway. It keeps the user's OAuth
tokens in an encrypted session cookie, refreshes the access token shortly
before it expires and forwards requests to upstream services with an
"Authorization: Bearer" header.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "bffgate version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return ExitCodeConfigError
	}

	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFile, "Gateway configuration file (.yaml, .json or .jsonc)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Dotenv file to load before reading the configuration (repeatable)")
}
