package cmd

import (
	"fmt"

	"github.com/ardanlabs/chainlab/foundation/explainer/signature"
	"github.com/spf13/cobra"
)

var secret string

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate a toy key pair",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		kp := signature.GenerateKeys()
		fmt.Fprintf(cmd.OutOrStdout(), "private %s\npublic  %s\n", kp.Private, kp.Public)
	},
}

var signCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign the message with the secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := digester()
		if err != nil {
			return err
		}

		sig, err := signature.Sign(d, args[0], secret)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), sig)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <message> <signature>",
	Short: "Check the signature against the message and secret",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := digester()
		if err != nil {
			return err
		}

		ok, err := signature.Verify(d, args[0], secret, args[1])
		if err != nil {
			return err
		}

		if !ok {
			return fmt.Errorf("signature does not match")
		}

		fmt.Fprintln(cmd.OutOrStdout(), "valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd, signCmd, verifyCmd)

	for _, c := range []*cobra.Command{signCmd, verifyCmd} {
		c.Flags().StringVarP(&secret, "secret", "s", "", "Private key used to sign.")
		c.MarkFlagRequired("secret")
	}
}
