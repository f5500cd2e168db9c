package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/adbudget/internal/crypto"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a token encryption key",
	Long: `Print a random 32-character key suitable for ADBUDGET_TOKEN_ENCRYPTION_KEY.

Changing the key makes every stored credential unreadable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
