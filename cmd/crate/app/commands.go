package app

import (
	"github.com/spf13/cobra"
)

// options holds persistent flag values shared by all subcommands.
type options struct {
	configDir string
	username  string
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "crate",
		Short: "Sync a Discogs collection into a local cache",
		Long: `crate pulls a Discogs user's collection through the rate-limited Discogs API
and reconciles it with a local cache, tracking new and removed releases and
which releases carry a note.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	rootCmd.SetVersionTemplate("crate {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&opts.configDir, "config", "", "config directory (default ~/.config/crate)")
	rootCmd.PersistentFlags().StringVarP(&opts.username, "username", "u", "", "Discogs username (overrides config)")

	rootCmd.AddCommand(
		newSyncCmd(opts),
		newStatusCmd(opts),
		newListCmd(opts),
		newNewCmd(opts),
		newSearchCmd(opts),
		newAnnotateCmd(opts),
		newOpenCmd(opts),
		newClearCmd(opts),
		newValidateCmd(opts),
		newConfigCmd(opts),
	)
	return rootCmd
}
