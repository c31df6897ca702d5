// Package cmd contains the chainlab command line tool.
package cmd

import (
	"os"

	"github.com/ardanlabs/chainlab/foundation/explainer/digest"
	"github.com/spf13/cobra"
)

var algorithm string

func init() {
	rootCmd.PersistentFlags().StringVarP(&algorithm, "algorithm", "g", digest.SHA256, "Digest algorithm to use (sha256, keccak256).")
}

var rootCmd = &cobra.Command{
	Use:          "chainlab",
	Short:        "Explore hashing, mining, chains and signatures",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func digester() (digest.Digester, error) {
	return digest.New(algorithm)
}
