package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest <text>",
	Short: "Print the digest of the text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  digestRun,
}

func init() {
	rootCmd.AddCommand(digestCmd)
}

func digestRun(cmd *cobra.Command, args []string) error {
	d, err := digester()
	if err != nil {
		return err
	}

	hash, err := d.Digest(strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
