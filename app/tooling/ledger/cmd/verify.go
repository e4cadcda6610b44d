package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check every block points at the hash of the block before it.",
	RunE:  verifyRun,
}

func verifyRun(cmd *cobra.Command, args []string) error {
	bc, err := newClient().FetchChain(cmd.Context())
	if err != nil {
		return err
	}

	if err := bc.Linked(); err != nil {
		return fmt.Errorf("chain is not linked: %w", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "chain of %d blocks is linked\n", len(bc.Blocks))
	return err
}
