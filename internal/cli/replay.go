package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"capacitor/internal/capacitor/consumer"
	"capacitor/internal/capacitor/feed"
)

// NewReplayCommand processes a JSONL block file through the engine and exits.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <file>",
		Short: "Process a JSONL block file and exit",
		Long: `Replay reads one block per line from a file, runs every outcome through the
allowlist filter and persists the logs of eligible outcomes. It prints a
summary when the file is exhausted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, rootOpts, args[0])
		},
	}
}

func runReplay(cmd *cobra.Command, opts *RootOptions, path string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	log := newLogger(cmd.ErrOrStderr(), cfg, opts.Verbose)

	src, err := feed.OpenFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open block file", err)
	}
	defer src.Close()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return WrapExitError(ExitFailure, "open store", err)
	}
	defer st.Close(context.WithoutCancel(ctx))

	eng, err := newEngine(ctx, cfg, st, log, nil)
	if err != nil {
		return WrapExitError(ExitFailure, "load allowlist", err)
	}

	cons, err := consumer.New(src, eng, consumer.WithLogger(log))
	if err != nil {
		return err
	}
	if err := cons.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "replay", err)
	}

	stats := cons.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "blocks:         %d\n", stats.Blocks)
	fmt.Fprintf(out, "invalid blocks: %d\n", stats.InvalidBlocks)
	fmt.Fprintf(out, "outcomes:       %d\n", stats.Outcomes)
	fmt.Fprintf(out, "eligible:       %d\n", stats.Eligible)
	fmt.Fprintf(out, "persisted:      %d\n", stats.Persisted)
	fmt.Fprintf(out, "rejected:       %d\n", stats.Rejected)
	fmt.Fprintf(out, "failed:         %d\n", stats.Failed)
	return nil
}
