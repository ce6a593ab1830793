package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"bffgate/internal/app"
	"bffgate/internal/config"
	"bffgate/internal/oauth"
	"bffgate/internal/session"
	"bffgate/pkg/logging"
)

var (
	sealInput        string
	sealIdentityFile string
)

// sealCmd turns a token endpoint response into session cookies.
var sealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Seal a token response into a session cookie",
	Long: `Reads a token endpoint response (JSON with access_token, refresh_token,
expires_in and optionally id_token) from --input or stdin and prints the
Cookie header that carries it as a gateway session. Principal claims are
taken, unverified, from the id_token or, failing that, a JWT access token.

The session identity comes from --identity-file or the configuration's
session section.`,
	Args: cobra.NoArgs,
	RunE: runSeal,
}

func runSeal(cmd *cobra.Command, args []string) error {
	logging.InitForCLI(logging.LevelWarn, cmd.ErrOrStderr())

	sessionCfg := config.SessionConfig{IdentityFile: sealIdentityFile}
	if sealIdentityFile == "" {
		cfg, err := config.LoadConfig(configPath, config.LoadOptions{EnvFiles: envFiles, SkipValidation: true})
		if err != nil {
			return err
		}
		sessionCfg = cfg.Session
	}

	sealer, err := app.NewSealer(sessionCfg)
	if err != nil {
		return err
	}
	store := session.NewStore(sealer, app.CookieOptions(sessionCfg))

	var in io.Reader = cmd.InOrStdin()
	if sealInput != "" && sealInput != "-" {
		f, err := os.Open(sealInput)
		if err != nil {
			return fmt.Errorf("opening token response: %w", err)
		}
		defer f.Close()
		in = f
	}
	body, err := io.ReadAll(io.LimitReader(in, 1<<20))
	if err != nil {
		return fmt.Errorf("reading token response: %w", err)
	}

	cookies, sess, err := sealTokenResponse(store, body, time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, "Cookie: ")
	for i, c := range cookies {
		if i > 0 {
			fmt.Fprint(out, "; ")
		}
		fmt.Fprintf(out, "%s=%s", c.Name, c.Value)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(cmd.ErrOrStderr(), "Session %s expires at %s\n", sess.ID, sess.ExpiresAt)
	return nil
}

// sealTokenResponse builds a session from a token endpoint response and
// returns the cookies Store would set for it.
func sealTokenResponse(store *session.Store, body []byte, now time.Time) ([]*http.Cookie, *session.Session, error) {
	bundle, err := oauth.DecodeTokenResponse(body)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid token response: %w", err)
	}

	var extra struct {
		IDToken string `json:"id_token"`
	}
	if err := json.Unmarshal(body, &extra); err != nil {
		return nil, nil, fmt.Errorf("invalid id_token in token response: %w", err)
	}

	claims := principalClaims(extra.IDToken, bundle.AccessToken.Value())

	sess := session.New(bundle.AccessToken.Value(), bundle.RefreshToken.Value(), now.Add(bundle.ExpiresIn), claims)

	w := &cookieCollector{header: http.Header{}}
	if err := store.Save(w, nil, sess); err != nil {
		return nil, nil, fmt.Errorf("sealing session: %w", err)
	}
	return (&http.Response{Header: w.header}).Cookies(), sess, nil
}

// principalClaims returns the claims of the first token that parses as a JWT.
// Signatures are not verified; the claims only describe the session.
func principalClaims(tokens ...string) map[string]any {
	parser := jwt.NewParser()
	for _, raw := range tokens {
		if raw == "" {
			continue
		}
		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
			logging.Debug("Seal", "Token is not a JWT: %v", err)
			continue
		}
		return map[string]any(claims)
	}
	return nil
}

// cookieCollector is a ResponseWriter that only keeps headers.
type cookieCollector struct {
	header http.Header
}

func (c *cookieCollector) Header() http.Header         { return c.header }
func (c *cookieCollector) Write(b []byte) (int, error) { return len(b), nil }
func (c *cookieCollector) WriteHeader(int)             {}

func init() {
	rootCmd.AddCommand(sealCmd)

	sealCmd.Flags().StringVarP(&sealInput, "input", "i", "", "Token response file (default: stdin)")
	sealCmd.Flags().StringVar(&sealIdentityFile, "identity-file", "", "age identity file (default: session section of --config)")
}
