package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"bffgate/internal/app"
	"bffgate/internal/config"
	"bffgate/internal/oauth"
	"bffgate/internal/session"
	"bffgate/pkg/logging"
	pkgstrings "bffgate/pkg/strings"
)

// checkCmd validates the configuration without starting the gateway.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the gateway configuration",
	Long: `Loads the configuration, checks every setting and the session identity,
and prints the effective settings and routes. Exits with code 2 when the
configuration is invalid.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	logging.InitForCLI(logging.LevelWarn, cmd.ErrOrStderr())

	cfg, err := config.LoadConfig(configPath, config.LoadOptions{EnvFiles: envFiles})
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(cmd.ErrOrStderr(), cfgErr.DetailedError())
		}
		return err
	}

	if _, err := app.NewSealer(cfg.Session); err != nil {
		return &config.ConfigurationError{
			FilePath:  configPath,
			ErrorType: "validation",
			Message:   err.Error(),
			Err:       err,
		}
	}

	out := cmd.OutOrStdout()
	renderSettings(out, cfg)
	fmt.Fprintln(out)
	renderRoutes(out, cfg.Routes)
	fmt.Fprintf(out, "\n%s %s\n", text.FgGreen.Sprint("✓"), "Configuration is valid")
	return nil
}

func renderSettings(out io.Writer, cfg config.GatewayConfig) {
	t := newTable(out)
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("SETTING"), text.FgHiCyan.Sprint("VALUE")})

	credentials := oauth.ClientCredentials{Authority: cfg.OpenID.Authority}
	cookie := cfg.Session.Cookie
	if cookie == "" {
		cookie = session.DefaultCookieName
	}
	metrics := "disabled"
	if cfg.Metrics.Enabled {
		metrics = cfg.Metrics.Addr
	}

	t.AppendRows([]table.Row{
		{"listen", cfg.Listen.Addr},
		{"token endpoint", pkgstrings.TruncateMiddle(credentials.TokenEndpoint(), pkgstrings.DefaultCellMaxLen)},
		{"client id", cfg.OpenID.ClientID},
		{"scope", strings.Join(cfg.OpenID.Scope, " ")},
		{"cookie", fmt.Sprintf("%s (sameSite=%s, secure=%t)", cookie, cfg.Session.SameSite, *cfg.Session.Secure)},
		{"refresh window", cfg.Refresh.Window.String()},
		{"retries", fmt.Sprintf("%d, first delay %s, budget %s", *cfg.Refresh.MaxRetries, cfg.Refresh.BaseDelay, cfg.Refresh.Timeout)},
		{"metrics", metrics},
		{"logging", fmt.Sprintf("%s/%s", cfg.Logging.Level, cfg.Logging.Format)},
	})
	t.Render()
}

func renderRoutes(out io.Writer, routes []config.RouteConfig) {
	t := newTable(out)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("ROUTE"),
		text.FgHiCyan.Sprint("PREFIX"),
		text.FgHiCyan.Sprint("UPSTREAM"),
		text.FgHiCyan.Sprint("STRIP"),
	})
	for _, r := range routes {
		strip := ""
		if r.StripPrefix {
			strip = "yes"
		}
		t.AppendRow(table.Row{
			pkgstrings.Truncate(r.Name, pkgstrings.DefaultCellMaxLen),
			r.Prefix,
			pkgstrings.TruncateMiddle(r.Upstream, pkgstrings.DefaultCellMaxLen),
			strip,
		})
	}
	t.Render()
}

// newTable creates a new table with standard styling
func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
