// Package ledger provides the client for the remote ledger service. The
// service owns the chain, this package only reads it and forwards new
// transactions.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/ledgerview/business/sys/metrics"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Paths exposed by the ledger service.
const (
	chainPath  = "/chain"
	submitPath = "/add_block"
)

// Option changes how the client is constructed.
type Option func(*Client)

// WithTimeout bounds every call made against the ledger service. A zero
// value leaves calls unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying http client. A timeout set with
// WithTimeout still applies.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(client).SetBaseURL(c.baseURL)
	}
}

// Client talks to a ledger service. It holds no state besides its
// configuration and is safe for concurrent use.
type Client struct {
	log     *zap.SugaredLogger
	baseURL string
	timeout time.Duration
	http    *resty.Client
}

// New constructs a client for the ledger service found at baseURL.
func New(log *zap.SugaredLogger, baseURL string, options ...Option) *Client {
	c := Client{
		log:     log,
		baseURL: baseURL,
		http:    resty.New().SetBaseURL(baseURL),
	}

	for _, option := range options {
		option(&c)
	}

	if c.timeout > 0 {
		c.http.SetTimeout(c.timeout)
	}

	return &c
}

// BaseURL returns the origin of the ledger service.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchChain retrieves the current chain. Caching is disabled so the result
// always reflects the latest state held by the service.
func (c *Client) FetchChain(ctx context.Context) (Blockchain, error) {
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("Cache-Control", "no-cache, no-store").
		SetHeader("Pragma", "no-cache").
		Get(chainPath)
	if err != nil {
		metrics.ObserveLedger("fetch", metrics.OutcomeNetwork, start)
		return Blockchain{}, fmt.Errorf("fetch chain: %w", err)
	}

	if !resp.IsSuccess() {
		metrics.ObserveLedger("fetch", metrics.OutcomeStatus, start)
		c.log.Infow("fetch chain", "status", resp.StatusCode(), "url", c.baseURL+chainPath)
		return Blockchain{}, ErrFetch
	}

	var bc Blockchain
	if err := json.Unmarshal(resp.Body(), &bc); err != nil {
		metrics.ObserveLedger("fetch", metrics.OutcomeParse, start)
		return Blockchain{}, &ParseError{Err: err}
	}

	metrics.ObserveLedger("fetch", metrics.OutcomeSuccess, start)

	return bc, nil
}

// SubmitTransactions forwards the transactions to the ledger service, which
// seals them into a new block. The body is always a JSON array, even for a
// single transaction. The response body is not read, callers fetch the
// chain again to observe the new block.
func (c *Client) SubmitTransactions(ctx context.Context, trans []Transaction) error {
	start := time.Now()

	if trans == nil {
		trans = []Transaction{}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(trans).
		SetDoNotParseResponse(true).
		Post(submitPath)
	if err != nil {
		metrics.ObserveLedger("submit", metrics.OutcomeNetwork, start)
		return fmt.Errorf("submit transactions: %w", err)
	}
	defer resp.RawBody().Close()

	if !resp.IsSuccess() {
		metrics.ObserveLedger("submit", metrics.OutcomeStatus, start)
		c.log.Infow("submit transactions", "status", resp.StatusCode(), "url", c.baseURL+submitPath, "count", len(trans))
		return ErrSubmit
	}

	metrics.ObserveLedger("submit", metrics.OutcomeSuccess, start)

	return nil
}
