// Package ledgertest provides an in-memory ledger service for tests. It
// speaks the same two endpoints as the real service but seals blocks
// without any proof of work.
package ledgertest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/ardanlabs/ledgerview/business/core/ledger"
)

// GenesisTimestamp is the timestamp given to the genesis block.
const GenesisTimestamp = 1700000000

// Server is a fake ledger service backed by an httptest server.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	chain        ledger.Blockchain
	fetches      int
	submissions  []json.RawMessage
	fetchStatus  int
	submitStatus int
	rawChain     []byte
	gate         chan struct{}
}

// New starts a fake ledger holding only a genesis block.
func New() *Server {
	s := Server{
		fetchStatus:  http.StatusOK,
		submitStatus: http.StatusOK,
	}

	genesis := ledger.Block{
		Timestamp:    GenesisTimestamp,
		Transactions: []ledger.Transaction{},
		PreviousHash: "0",
	}
	genesis.Hash = hash(genesis)

	s.chain = ledger.Blockchain{
		Blocks:     []ledger.Block{genesis},
		Difficulty: 2,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /chain", s.handleChain)
	mux.HandleFunc("POST /add_block", s.handleAddBlock)
	s.Server = httptest.NewServer(mux)

	return &s
}

// SetChain replaces the chain served by the fake.
func (s *Server) SetChain(bc ledger.Blockchain) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chain = bc
}

// SetRawChain makes the fake answer fetches with the provided body.
func (s *Server) SetRawChain(body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rawChain = body
}

// FailFetch makes fetches answer with the provided status.
func (s *Server) FailFetch(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetchStatus = status
}

// FailSubmit makes submissions answer with the provided status.
func (s *Server) FailSubmit(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitStatus = status
}

// Hold makes submissions wait until the returned function is called.
func (s *Server) Hold() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	gate := make(chan struct{})
	s.gate = gate

	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// Chain returns a copy of the chain currently held.
func (s *Server) Chain() ledger.Blockchain {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocks := make([]ledger.Block, len(s.chain.Blocks))
	copy(blocks, s.chain.Blocks)

	return ledger.Blockchain{
		Blocks:     blocks,
		Difficulty: s.chain.Difficulty,
	}
}

// Fetches returns the number of chain fetches served.
func (s *Server) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fetches
}

// Submissions returns the raw bodies received on the submission endpoint.
func (s *Server) Submissions() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := make([]json.RawMessage, len(s.submissions))
	copy(subs, s.submissions)

	return subs
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.fetches++
	status := s.fetchStatus
	raw := s.rawChain
	bc := s.chain
	s.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if raw != nil {
		w.Write(raw)
		return
	}

	json.NewEncoder(w).Encode(bc)
}

func (s *Server) handleAddBlock(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.submissions = append(s.submissions, body)
	gate := s.gate
	status := s.submitStatus
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}

	var trans []ledger.Transaction
	if err := json.Unmarshal(body, &trans); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	prev := s.chain.Blocks[len(s.chain.Blocks)-1]
	blk := ledger.Block{
		Timestamp:    prev.Timestamp + 60,
		Transactions: trans,
		PreviousHash: prev.Hash,
	}
	blk.Hash = hash(blk)
	s.chain.Blocks = append(s.chain.Blocks, blk)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"message":"Block added successfully"}`))
}

func hash(blk ledger.Block) string {
	data, _ := json.Marshal(blk.Transactions)
	sum := sha256.Sum256(fmt.Appendf(nil, "%d%s%s%d", blk.Timestamp, data, blk.PreviousHash, blk.Nonce))
	return hex.EncodeToString(sum[:])
}
