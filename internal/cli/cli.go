// Package cli implements the atalogics command-line interface.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/atalogics/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "atalogics"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out    io.Writer // command output
	errOut io.Writer // logs and spinner frames

	// Global flags.
	configPath string
	sandbox    bool
	noCache    bool
	noSession  bool
	jsonOutput bool

	// sessionDir overrides the session directory (~/.config/atalogics/sessions).
	sessionDir string

	stats stats
}

// New creates a new CLI instance with a default logger writing to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
		errOut: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output, which defaults to os.Stdout.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Atalogics is a command-line client for the ATALOGICS shipping API",
		Long: `Atalogics checks addresses, lists timeslots and offers, and looks up
delivery areas against the ATALOGICS shipping API.

Credentials are read from ~/.config/atalogics/config.toml or from the
ATALOGICS_CLIENT_ID and ATALOGICS_CLIENT_SECRET environment variables.
Issued tokens are kept in ~/.config/atalogics/sessions and reused until
they expire or the API rejects them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.stats.register()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.stats.log(c.Logger)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "config file (default ~/.config/atalogics/config.toml)")
	flags.BoolVar(&c.sandbox, "sandbox", false, "use the sandbox environment")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the response cache")
	flags.BoolVar(&c.noSession, "no-session", false, "do not read or store the access token")
	flags.BoolVar(&c.jsonOutput, "json", false, "print raw response bodies as JSON")

	// Register all subcommands
	root.AddCommand(c.tokenCommand())
	root.AddCommand(c.addressCommand())
	root.AddCommand(c.timeslotsCommand())
	root.AddCommand(c.offersCommand())
	root.AddCommand(c.citiesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
