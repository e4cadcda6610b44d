// Package chainview turns a fetched blockchain into a read-only, display
// ready view. Rendering is a pure function of its input: blocks keep the
// order the ledger service returned and nothing is verified.
package chainview

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ardanlabs/ledgerview/business/core/ledger"
)

// Text shown by every renderer of the view.
const (
	GenesisLabel   = "Genesis Block"
	NoTransactions = "No transactions in this block"
)

// TimeLayout formats block timestamps as a locale style date and time.
const TimeLayout = "1/2/2006, 3:04:05 PM"

// Transaction is a transaction ready for display.
type Transaction struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// Block is a block ready for display.
type Block struct {
	Number       int           `json:"number"`
	Genesis      bool          `json:"genesis"`
	Hash         string        `json:"hash"`
	PreviousHash string        `json:"previous_hash"`
	Nonce        uint64        `json:"nonce"`
	Timestamp    string        `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	Placeholder  string        `json:"placeholder,omitempty"`
}

// Empty reports whether the block carries no transactions.
func (b Block) Empty() bool {
	return len(b.Transactions) == 0
}

// View is the rendered chain.
type View struct {
	Blocks     []Block `json:"blocks"`
	Difficulty int     `json:"difficulty"`
}

// Render builds the view for the chain. The block at index 0, and only that
// block, is marked as genesis regardless of its content. Timestamps are
// converted into the provided location.
func Render(bc ledger.Blockchain, loc *time.Location) View {
	if loc == nil {
		loc = time.Local
	}

	blocks := make([]Block, len(bc.Blocks))
	for i, blk := range bc.Blocks {
		trans := make([]Transaction, len(blk.Transactions))
		for j, tx := range blk.Transactions {
			trans[j] = Transaction{
				Sender:    tx.Sender,
				Recipient: tx.Recipient,
				Amount:    FormatAmount(tx.Amount),
			}
		}

		b := Block{
			Number:       i,
			Genesis:      i == 0,
			Hash:         blk.Hash,
			PreviousHash: blk.PreviousHash,
			Nonce:        blk.Nonce,
			Timestamp:    FormatTimestamp(blk.Timestamp, loc),
			Transactions: trans,
		}
		if b.Empty() {
			b.Placeholder = NoTransactions
		}

		blocks[i] = b
	}

	return View{
		Blocks:     blocks,
		Difficulty: bc.Difficulty,
	}
}

// FormatTimestamp converts unix seconds into a date and time string in the
// provided location.
func FormatTimestamp(seconds int64, loc *time.Location) string {
	return time.Unix(seconds, 0).In(loc).Format(TimeLayout)
}

// FormatAmount renders an amount the way a browser prints a number: the
// shortest decimal that round trips, switching to exponent form below 1e-6
// and from 1e21 on. NaN and the infinities print by name.
func FormatAmount(amount ledger.Amount) string {
	f := float64(amount)

	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	// Go pads the exponent to two digits, browsers do not.
	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}

// Title returns the heading for the block.
func (b Block) Title() string {
	if b.Genesis {
		return fmt.Sprintf("Block #%d (%s)", b.Number, GenesisLabel)
	}
	return fmt.Sprintf("Block #%d", b.Number)
}

// WriteText writes a plain text rendering of the view.
func (v View) WriteText(w io.Writer) error {
	for _, b := range v.Blocks {
		if _, err := fmt.Fprintf(w, "%s\n", b.Title()); err != nil {
			return err
		}

		fmt.Fprintf(w, "  Hash:          %s\n", b.Hash)
		fmt.Fprintf(w, "  Previous Hash: %s\n", b.PreviousHash)
		fmt.Fprintf(w, "  Nonce:         %d\n", b.Nonce)
		fmt.Fprintf(w, "  Timestamp:     %s\n", b.Timestamp)
		fmt.Fprintf(w, "  Transactions:\n")

		if b.Empty() {
			fmt.Fprintf(w, "    %s\n", b.Placeholder)
			continue
		}

		for _, tx := range b.Transactions {
			fmt.Fprintf(w, "    From: %s  To: %s  Amount: %s\n", tx.Sender, tx.Recipient, tx.Amount)
		}
	}

	return nil
}
