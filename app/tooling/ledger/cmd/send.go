package cmd

import (
	"context"
	"fmt"

	"github.com/ardanlabs/ledgerview/business/core/chainview"
	"github.com/ardanlabs/ledgerview/business/core/submitter"
	"github.com/ardanlabs/ledgerview/foundation/validate"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit a transaction and print the chain holding it.",
	RunE:  sendRun,
}

func init() {
	sendCmd.Flags().StringP("sender", "s", "", "Address sending the amount.")
	sendCmd.Flags().StringP("recipient", "r", "", "Address receiving the amount.")
	sendCmd.Flags().StringP("amount", "a", "", "Amount to send.")
	sendCmd.Flags().Bool("plain", false, "Print without colors or boxes.")
}

func sendRun(cmd *cobra.Command, args []string) error {
	loc, err := location()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	sender, _ := flags.GetString("sender")
	recipient, _ := flags.GetString("recipient")
	amount, _ := flags.GetString("amount")
	plain, _ := flags.GetBool("plain")

	client := newClient()
	out := cmd.OutOrStdout()

	// Once the ledger accepted the transaction the chain is fetched again
	// so the new block is printed.
	refresh := func(ctx context.Context) error {
		bc, err := client.FetchChain(ctx)
		if err != nil {
			return err
		}
		return printChain(out, chainview.Render(bc, loc), plain)
	}

	sub := submitter.New(log, client, refresh)
	sub.SetDraft(submitter.Draft{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	})

	fmt.Fprint(cmd.ErrOrStderr(), pterm.Info.Sprintln(submitter.LabelPending))

	if err := sub.Submit(cmd.Context()); err != nil {
		if fe := validate.GetFieldErrors(err); fe != nil {
			return fmt.Errorf("invalid transaction: %s", fe)
		}
		return err
	}

	fmt.Fprint(cmd.ErrOrStderr(), pterm.Success.Sprintln("Transaction added"))

	return nil
}
