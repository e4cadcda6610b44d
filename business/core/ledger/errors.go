package ledger

import (
	"errors"
	"fmt"
)

// Set of error variables for the ledger operations.
var (
	ErrFetch  = errors.New("failed to fetch blockchain")
	ErrSubmit = errors.New("failed to add transaction")
)

// ParseError is returned when the ledger service answers with a body that
// is not a valid document.
type ParseError struct {
	Err error
}

// Error implements the error interface.
func (pe *ParseError) Error() string {
	return fmt.Sprintf("parsing ledger response: %s", pe.Err)
}

// Unwrap returns the underlying decoding error.
func (pe *ParseError) Unwrap() error {
	return pe.Err
}

// IsParseError checks if an error of type ParseError exists.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// LinkError identifies a block whose previous hash does not match the hash
// of the block before it.
type LinkError struct {
	Index        int
	PreviousHash string
	ExpectedHash string
}

// Error implements the error interface.
func (le *LinkError) Error() string {
	return fmt.Sprintf("block %d: previous hash %q does not match block %d hash %q", le.Index, le.PreviousHash, le.Index-1, le.ExpectedHash)
}
