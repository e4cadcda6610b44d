// Package submitter owns the flow of submitting a single transaction draft
// to the ledger service. A submitter is either Idle or Pending, and while
// Pending its trigger is disabled.
package submitter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/ardanlabs/ledgerview/business/core/ledger"
	"github.com/ardanlabs/ledgerview/foundation/validate"
	"go.uber.org/zap"
)

// Labels shown on the submit trigger.
const (
	LabelIdle    = "Add Transaction"
	LabelPending = "Processing..."
)

// State represents the state of the submitter.
type State int

// Set of states a submitter moves between.
const (
	Idle State = iota
	Pending
)

// String implements the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Draft holds the raw values entered by the user before submission.
type Draft struct {
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Amount    string `json:"amount" validate:"required"`
}

// Transaction converts the draft into the transaction forwarded to the
// ledger service.
func (d Draft) Transaction() ledger.Transaction {
	return ledger.Transaction{
		Sender:    d.Sender,
		Recipient: d.Recipient,
		Amount:    ParseAmount(d.Amount),
	}
}

// ParseAmount parses the amount as a float. Text that is not a number
// yields NaN, it is neither corrected nor rejected. Out of range values
// keep the infinity the parser reports.
func ParseAmount(s string) ledger.Amount {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return ledger.Amount(math.NaN())
	}
	return ledger.Amount(f)
}

// Ledger represents the ledger behavior the submitter needs.
type Ledger interface {
	SubmitTransactions(ctx context.Context, trans []ledger.Transaction) error
}

// Refresher is called after a successful submission so the chain is
// fetched again and the new block becomes visible.
type Refresher func(ctx context.Context) error

// Submitter manages the draft and the state of a single submission.
type Submitter struct {
	log     *zap.SugaredLogger
	ledger  Ledger
	refresh Refresher

	mu    sync.Mutex
	state State
	draft Draft
}

// New constructs a submitter in the Idle state with an empty draft.
func New(log *zap.SugaredLogger, ldg Ledger, refresh Refresher) *Submitter {
	return &Submitter{
		log:     log,
		ledger:  ldg,
		refresh: refresh,
	}
}

// SetDraft records the values entered by the user.
func (s *Submitter) SetDraft(draft Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = draft
}

// Draft returns the values currently held.
func (s *Submitter) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.draft
}

// State returns the current state.
func (s *Submitter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Disabled reports whether the submit trigger is disabled.
func (s *Submitter) Disabled() bool {
	return s.State() == Pending
}

// Label returns the text for the submit trigger.
func (s *Submitter) Label() string {
	if s.Disabled() {
		return LabelPending
	}
	return LabelIdle
}

// Submit forwards the draft to the ledger service. While a submission is
// Pending the trigger is disabled and Submit has no effect. On success the
// draft is cleared and a refresh is requested. On failure the draft is kept,
// no refresh happens and the error is returned.
func (s *Submitter) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Pending {
		s.mu.Unlock()
		return nil
	}

	draft := s.draft
	if err := validate.Check(draft); err != nil {
		s.mu.Unlock()
		return err
	}

	s.state = Pending
	s.mu.Unlock()

	tx := draft.Transaction()
	if math.IsNaN(float64(tx.Amount)) {
		s.log.Infow("submit", "status", "amount is not a number", "amount", draft.Amount)
	}

	err := s.ledger.SubmitTransactions(ctx, []ledger.Transaction{tx})

	s.mu.Lock()
	s.state = Idle
	if err == nil {
		s.draft = Draft{}
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	if s.refresh != nil {
		if err := s.refresh(ctx); err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
	}

	return nil
}
