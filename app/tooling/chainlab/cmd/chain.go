package cmd

import (
	"fmt"
	"io"

	"github.com/ardanlabs/chainlab/foundation/explainer/chain"
	"github.com/spf13/cobra"
)

var (
	blocks        int
	tamperID      uint64
	tamperPayload string
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Build a demo chain and optionally tamper with one block",
	Args:  cobra.NoArgs,
	RunE:  chainRun,
}

func init() {
	rootCmd.AddCommand(chainCmd)
	chainCmd.Flags().IntVarP(&blocks, "blocks", "n", 3, "Number of blocks to append after genesis.")
	chainCmd.Flags().Uint64VarP(&tamperID, "tamper", "x", 0, "Id of the block to tamper with.")
	chainCmd.Flags().StringVarP(&tamperPayload, "payload", "p", "Tx Mallory", "Payload written by the tamper.")
}

func chainRun(cmd *cobra.Command, args []string) error {
	d, err := digester()
	if err != nil {
		return err
	}

	chn, err := chain.New(chain.Config{Digester: d})
	if err != nil {
		return err
	}

	for i := range blocks {
		if _, err := chn.Append(chain.DefaultPayload(i + 1)); err != nil {
			return err
		}
	}

	if tamperID != 0 {
		if err := chn.Tamper(tamperID, tamperPayload); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	printBlocks(out, chn.Blocks())

	issues, err := chn.Verify()
	if err != nil {
		return err
	}
	for _, iss := range issues {
		fmt.Fprintf(out, "block %d: %s\n", iss.ID, iss.Reason)
	}

	return nil
}

func printBlocks(w io.Writer, blks []chain.Block) {
	for _, b := range blks {
		mark := "ok"
		if !b.Valid {
			mark = "INVALID"
		}
		fmt.Fprintf(w, "#%d %-7s %q\n   prev %s\n   hash %s\n", b.ID, mark, b.Payload, b.PrevDigest, b.Digest)
	}
}
