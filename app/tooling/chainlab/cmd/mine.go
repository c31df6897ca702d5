package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ardanlabs/chainlab/foundation/explainer/pow"
	"github.com/spf13/cobra"
)

var (
	difficulty int
	batchSize  int
	throttle   time.Duration
	quiet      bool
)

var mineCmd = &cobra.Command{
	Use:   "mine <payload>",
	Short: "Search for a nonce that solves the puzzle for the payload",
	Args:  cobra.ExactArgs(1),
	RunE:  mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
	mineCmd.Flags().IntVarP(&difficulty, "difficulty", "d", 4, "Number of leading zero hex digits required.")
	mineCmd.Flags().IntVarP(&batchSize, "batch", "b", pow.DefaultBatchSize, "Attempts between progress reports.")
	mineCmd.Flags().DurationVarP(&throttle, "throttle", "t", 0, "Pause between batches.")
	mineCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not report progress.")
}

func mineRun(cmd *cobra.Command, args []string) error {
	d, err := digester()
	if err != nil {
		return err
	}

	// Ctrl-C stops the search at the next batch boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()

	cfg := pow.Config{
		Digester:   d,
		Payload:    args[0],
		Difficulty: difficulty,
		BatchSize:  batchSize,
		Yield:      pow.Throttle(throttle),
	}
	if !quiet {
		cfg.Progress = func(st pow.State) {
			fmt.Fprintf(out, "nonce %-10d attempts %-10d %s\n", st.Nonce, st.Attempts, st.Digest)
		}
	}

	fmt.Fprintf(out, "target %s expected attempts %s\n", pow.Target(difficulty), pow.ExpectedAttempts(difficulty))

	start := time.Now()
	res, err := pow.Search(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "solved nonce %d attempts %d in %s\n%s\n", res.Nonce, res.Attempts, time.Since(start).Round(time.Millisecond), res.Digest)
	return nil
}
