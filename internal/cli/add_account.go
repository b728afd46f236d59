package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewAddAccountCommand durably adds an account to the allowlist.
func NewAddAccountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-account <account-id>",
		Short: "Add an account to the stored allowlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddAccount(cmd, rootOpts, args[0])
		},
	}
}

func runAddAccount(cmd *cobra.Command, opts *RootOptions, accountID string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	log := newLogger(cmd.ErrOrStderr(), cfg, opts.Verbose)

	st, err := openStores(ctx, cfg)
	if err != nil {
		return WrapExitError(ExitFailure, "open store", err)
	}
	defer st.Close(context.WithoutCancel(ctx))

	eng, err := newEngine(ctx, cfg, st, log, nil)
	if err != nil {
		return WrapExitError(ExitFailure, "load allowlist", err)
	}

	added, err := eng.AddAccount(ctx, accountID)
	if err != nil {
		return WrapExitError(ExitFailure, "add account", err)
	}
	if added {
		fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", accountID)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s already monitored\n", accountID)
	}
	return nil
}
