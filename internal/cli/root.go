package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/singleline/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
// The persistent --verbose flag switches the CLI logger to debug level before
// any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   appName,
		Short: "singleline lays out substation single-line diagrams",
		Long: `singleline computes the layout of substation single-line diagrams.

It reads a topology document (a voltage level, a substation or a zone),
detects the cells of every voltage level, places busbars and feeders, and
routes the lines between voltage levels and substations.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := LogInfo
			if verbose {
				level = LogDebug
			}
			c.SetLogLevel(level)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: ~/.config/singleline/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.hintsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}
