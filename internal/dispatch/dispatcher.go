// Package dispatch issues the outbound webhook calls for a submission.
// The proposal and email endpoints are called concurrently; every
// branch, including transport failure, is captured as a WebhookOutcome
// value so nothing escapes this package as a Go error.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/proposalforge/proposal-gateway/internal/domain"
)

// Purpose tags the outbound payload so a shared automation endpoint can
// branch on the call's intent.
const (
	PurposeProposal = "proposal"
	PurposeEmail    = "email"
)

// Dispatcher posts proposal records to the configured endpoints.
type Dispatcher struct {
	proposalURL string
	emailURL    string
	client      *http.Client
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClient injects the HTTP client, primarily for tests.
func WithClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithTimeout bounds each outbound call. Zero keeps the transport
// default.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.client.Timeout = timeout }
}

// New creates a dispatcher. Either URL may be empty, in which case that
// endpoint resolves immediately to an Unconfigured outcome.
func New(proposalURL, emailURL string, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		proposalURL: proposalURL,
		emailURL:    emailURL,
		client:      &http.Client{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// payload is the wire form of an outbound call: the record plus a
// purpose marker and a server timestamp.
type payload struct {
	*domain.ProposalRecord
	Purpose     string `json:"purpose"`
	SubmittedAt string `json:"submittedAt"`
}

// Dispatch calls both endpoints concurrently and waits for both
// outcomes regardless of individual failure.
func (d *Dispatcher) Dispatch(ctx context.Context, record *domain.ProposalRecord) (proposal, email domain.WebhookOutcome) {
	submittedAt := time.Now().UTC().Format(time.RFC3339)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		proposal = d.call(ctx, d.proposalURL, payload{record, PurposeProposal, submittedAt})
	}()
	go func() {
		defer wg.Done()
		email = d.call(ctx, d.emailURL, payload{record, PurposeEmail, submittedAt})
	}()
	wg.Wait()

	return proposal, email
}

func (d *Dispatcher) call(ctx context.Context, url string, p payload) domain.WebhookOutcome {
	if url == "" {
		return domain.WebhookOutcome{Kind: domain.OutcomeUnconfigured}
	}

	body, err := json.Marshal(p)
	if err != nil {
		// A ProposalRecord always marshals; treat this as a transport
		// failure to keep the contract total.
		return domain.WebhookOutcome{Kind: domain.OutcomeNetworkFailure, ErrMessage: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.WebhookOutcome{Kind: domain.OutcomeNetworkFailure, ErrMessage: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("webhook call failed",
			slog.String("purpose", p.Purpose),
			slog.String("error", err.Error()))
		return domain.WebhookOutcome{Kind: domain.OutcomeNetworkFailure, ErrMessage: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WebhookOutcome{Kind: domain.OutcomeNetworkFailure, ErrMessage: "read response: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.logger.Warn("webhook returned error status",
			slog.String("purpose", p.Purpose),
			slog.Int("status", resp.StatusCode))
		return domain.WebhookOutcome{
			Kind:       domain.OutcomeHTTPError,
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}

	return domain.WebhookOutcome{
		Kind:               domain.OutcomeSuccess,
		StatusCode:         resp.StatusCode,
		Body:               respBody,
		ContentType:        resp.Header.Get("Content-Type"),
		ContentDisposition: resp.Header.Get("Content-Disposition"),
	}
}
