package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	v3 "github.com/matzehuels/atalogics/pkg/atalogics/v3"
	"github.com/matzehuels/atalogics/pkg/session"
)

// tokenCommand creates the token management command.
func (c *CLI) tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored access token",
	}

	cmd.AddCommand(c.tokenShowCommand())
	cmd.AddCommand(c.tokenRefreshCommand())
	cmd.AddCommand(c.tokenClearCommand())

	return cmd
}

// tokenShowCommand creates the "token show" subcommand.
func (c *CLI) tokenShowCommand() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the access token, fetching one if none is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.connect(ctx, v3.Version)
			if err != nil {
				return err
			}
			defer client.Close()

			token := client.AccessToken()
			if !reveal {
				token = maskToken(token)
			}
			printKeyValue(c.out, "Type", client.TokenType())
			printKeyValue(c.out, "Token", token)
			printKeyValue(c.out, "State", client.State().String())

			cfg, err := c.loadConfig(ctx)
			if err != nil {
				return err
			}
			if store := c.sessions(cfg); store != nil {
				if sess, err := store.GetSession(ctx); err == nil && sess != nil {
					printKeyValue(c.out, "Expires", sess.ExpiresAt.Format("Jan 2, 2006 15:04"))
					printDetail(c.out, "Stored in %s", store.Path())
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the full token")
	return cmd
}

// tokenRefreshCommand creates the "token refresh" subcommand.
func (c *CLI) tokenRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch a new access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := c.connect(ctx, v3.Version)
			if err != nil {
				return err
			}
			defer client.Close()

			spinner := c.spin(ctx, "Refreshing token...")
			if _, err := client.RefreshAccessToken(ctx); err != nil {
				spinner.StopWithError("Refresh failed")
				return err
			}
			spinner.StopWithSuccess("Token refreshed")

			tok := client.Token()
			printKeyValue(c.out, "Type", tok.TokenType)
			printKeyValue(c.out, "Expires in", strconv.Itoa(tok.ExpiresIn)+"s")
			return nil
		},
	}
}

// tokenClearCommand creates the "token clear" subcommand.
func (c *CLI) tokenClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(ctx)
			if err != nil {
				return err
			}
			store, err := session.NewCLIStore(c.sessionDir, cfg.ClientID, cfg.SandboxMode)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			if err := store.DeleteSession(ctx); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess(c.out, "Removed stored token")
			printDetail(c.out, "%s", store.Path())
			return nil
		},
	}
}

// maskToken keeps the first and last four characters of long tokens.
func maskToken(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:4] + "…" + token[len(token)-4:]
}
