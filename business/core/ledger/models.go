package ledger

import (
	"bytes"
	"encoding/json"
	"math"
)

// Amount is the value moved by a transaction. The ledger service defines no
// range for it, so negative values and NaN are carried as given.
type Amount float64

// MarshalJSON encodes NaN and infinities as null, which is what a browser
// sends for the same values.
func (a Amount) MarshalJSON() ([]byte, error) {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON decodes null back into NaN.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Amount(math.NaN())
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(f)

	return nil
}

// Transaction moves an amount from a sender to a recipient. It has no
// identity of its own, its position in the block is what tells it apart.
type Transaction struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    Amount `json:"amount"`
}

// Block is a group of transactions sealed by the ledger service. Hash and
// PreviousHash are opaque to this client.
type Block struct {
	Timestamp    int64         `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	PreviousHash string        `json:"previous_hash"`
	Nonce        uint64        `json:"nonce"`
	Hash         string        `json:"hash"`
}

// Blockchain is the full chain as returned by the ledger service, oldest
// block first. The block at index 0 is the genesis block.
type Blockchain struct {
	Blocks     []Block `json:"blocks"`
	Difficulty int     `json:"difficulty"`
}

// Linked checks that every block points at the hash of the block before it.
// The first block that breaks the link is reported as a *LinkError.
func (bc Blockchain) Linked() error {
	for i := 1; i < len(bc.Blocks); i++ {
		prev := bc.Blocks[i-1]
		if bc.Blocks[i].PreviousHash != prev.Hash {
			return &LinkError{
				Index:        i,
				PreviousHash: bc.Blocks[i].PreviousHash,
				ExpectedHash: prev.Hash,
			}
		}
	}

	return nil
}
