// Package cli implements the vuru command-line interface.
//
// Every subcommand hangs off the root command built by
// [CLI.RootCommand]. Configuration is loaded once in the root's
// PersistentPreRunE, so RunE bodies can rely on c.cfg being set.
// Logging goes to stderr so stdout stays parseable.
package cli

import (
	"bufio"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vup-linux/vuru/pkg/buildinfo"
	"github.com/vup-linux/vuru/pkg/config"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
	LogError = log.ErrorLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	cfg   *config.Config
	stdin *bufio.Reader

	// Persistent flag values, bound in RootCommand.
	verbose bool
	noCache bool
	cfgPath string
}

// New creates a new CLI instance logging to w and reading prompt
// answers from stdin.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		stdin:  bufio.NewReader(os.Stdin),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "vuru",
		Short: "Install community packages on Void Linux, reviewed before trusted",
		Long: `vuru installs packages from the VUP community repository alongside the
stock XBPS repositories. Dependencies are resolved across both sources,
community templates are shown for review before anything runs, and the
actual work is delegated to xbps-install, xbps-remove and xbps-src.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.Logger.SetLevel(log.DebugLevel)
				registerDebugHooks(c.Logger)
			}
			cfg, err := config.Load(c.cfgPath)
			if err != nil {
				return err
			}
			if c.noCache {
				cfg.Cache.Disabled = true
			}
			c.cfg = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&c.noCache, "no-cache", false, "bypass the index and template caches")
	pf.StringVar(&c.cfgPath, "config", "", "config file (default $XDG_CONFIG_HOME/vuru/config.toml)")

	// Register all subcommands
	root.AddCommand(c.installCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.syncCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}
