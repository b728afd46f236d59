package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Store   string
	Allow   []string
}

// NewRootCommand creates the root command for the capacitor CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "capacitor",
		Short: "Mirror contract logs from a block feed into a document store",
		Long: `capacitor consumes execution outcomes from an ordered block feed, keeps the
logs emitted by allowlisted accounts and stores them as documents, one
namespace per account and one collection per log type.

Configuration is read from the environment; flags override it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "document store backend (mongo|postgres|memory)")
	cmd.PersistentFlags().StringSliceVar(&opts.Allow, "allow", nil, "accounts to monitor in addition to the stored allowlist")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewAddAccountCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewVersionCommand prints the build version.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "capacitor %s\n", Version)
			return nil
		},
	}
}
