package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"filippo.io/age"
	"github.com/spf13/cobra"
)

var (
	keygenOutput string
	keygenForce  bool
)

// keygenCmd writes a new session sealing identity.
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a session sealing identity",
	Long: `Generates an age X25519 identity for session.identityFile and prints its
public key. To rotate keys, put the new identity first in the identity file
and keep the old one below it until existing sessions have been renewed.`,
	Args: cobra.NoArgs,
	RunE: runKeygen,
}

func runKeygen(cmd *cobra.Command, args []string) error {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating age identity: %w", err)
	}

	if keygenOutput == "" || keygenOutput == "-" {
		if err := writeIdentity(cmd.OutOrStdout(), identity, time.Now()); err != nil {
			return err
		}
		return nil
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if keygenForce {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(keygenOutput, flags, 0o600)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%s already exists; use --force to overwrite", keygenOutput)
	}
	if err != nil {
		return fmt.Errorf("creating identity file: %w", err)
	}

	if err := writeIdentity(f, identity, time.Now()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing identity file: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Public key: %s\n", identity.Recipient())
	return nil
}

// writeIdentity writes identity in the age key file format.
func writeIdentity(w io.Writer, identity *age.X25519Identity, created time.Time) error {
	_, err := fmt.Fprintf(w, "# created: %s\n# public key: %s\n%s\n",
		created.UTC().Format(time.RFC3339), identity.Recipient(), identity)
	if err != nil {
		return fmt.Errorf("writing identity: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().StringVarP(&keygenOutput, "output", "o", "", "Write the identity to this file (default: stdout)")
	keygenCmd.Flags().BoolVar(&keygenForce, "force", false, "Overwrite an existing identity file")
}
