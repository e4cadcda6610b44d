package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/ardanlabs/ledgerview/business/core/chainview"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the current chain.",
	RunE:  chainRun,
}

func init() {
	chainCmd.Flags().Bool("plain", false, "Print without colors or boxes.")
}

func chainRun(cmd *cobra.Command, args []string) error {
	loc, err := location()
	if err != nil {
		return err
	}

	bc, err := newClient().FetchChain(cmd.Context())
	if err != nil {
		return err
	}

	plain, _ := cmd.Flags().GetBool("plain")

	return printChain(cmd.OutOrStdout(), chainview.Render(bc, loc), plain)
}

// printChain writes the view either as plain text or as one box per block.
func printChain(w io.Writer, view chainview.View, plain bool) error {
	if plain {
		return view.WriteText(w)
	}

	for _, b := range view.Blocks {
		box, err := renderBlock(b)
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintln(w, box); err != nil {
			return err
		}
	}

	return nil
}

func renderBlock(b chainview.Block) (string, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s\n", pterm.Gray("Hash:         "), b.Hash)
	fmt.Fprintf(&sb, "%s %s\n", pterm.Gray("Previous Hash:"), b.PreviousHash)
	fmt.Fprintf(&sb, "%s %d\n", pterm.Gray("Nonce:        "), b.Nonce)
	fmt.Fprintf(&sb, "%s %s\n\n", pterm.Gray("Timestamp:    "), b.Timestamp)

	switch {
	case b.Empty():
		sb.WriteString(pterm.Gray(b.Placeholder))

	default:
		data := pterm.TableData{{"From", "To", "Amount"}}
		for _, tx := range b.Transactions {
			data = append(data, []string{tx.Sender, tx.Recipient, tx.Amount})
		}

		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return "", fmt.Errorf("rendering transactions: %w", err)
		}
		sb.WriteString(table)
	}

	title := b.Title()
	if b.Genesis {
		title = pterm.LightYellow(title)
	}

	return pterm.DefaultBox.WithTitle(title).WithTitleTopLeft().Sprint(sb.String()), nil
}
