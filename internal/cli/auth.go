package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/itelinc/incuchat/internal/config"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Store the portal bearer token",
		Long: "Prompts for a portal bearer token without echoing it and writes it to\n" +
			"the configured token file. INCUCHAT_PORTAL_TOKEN overrides the file.",
		RunE: runAuth,
	}
	cmd.Flags().Bool("stdin", false, "Read the token from stdin instead of the terminal prompt")
	return cmd
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return Exitf(ExitCodeFailure, "load config: %v", err)
	}

	var token string
	if fromStdin, _ := cmd.Flags().GetBool("stdin"); fromStdin {
		var line string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &line); err != nil {
			return Exitf(ExitCodeFailure, "read token: %v", err)
		}
		token = line
	} else {
		fmt.Fprint(cmd.OutOrStdout(), "Portal token: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return Exitf(ExitCodeFailure, "read token: %v", err)
		}
		token = string(raw)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return Exitf(ExitCodeFailure, "empty token")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return Exitf(ExitCodeFailure, "prepare directories: %v", err)
	}
	if err := writeToken(cfg, token); err != nil {
		return Exitf(ExitCodeFailure, "store token: %v", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Token stored in %s.\n", cfg.Portal.TokenFile)
	return nil
}

func writeToken(cfg *config.Config, token string) error {
	return os.WriteFile(cfg.Portal.TokenFile, []byte(token+"\n"), 0o600)
}
