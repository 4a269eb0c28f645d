package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/proposalforge/proposal-gateway/internal/domain"
)

func record() *domain.ProposalRecord {
	return &domain.ProposalRecord{
		ClientCompany: "Acme Corp",
		ServiceName:   "Website Redesign",
		SenderName:    "Sam Lee",
	}
}

func TestDispatch_BothEndpointsCalledConcurrently(t *testing.T) {
	var proposalPayload, emailPayload map[string]any

	proposalSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&proposalPayload)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer proposalSrv.Close()

	emailSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&emailPayload)
		w.Write([]byte(`{"sent":true}`))
	}))
	defer emailSrv.Close()

	d := New(proposalSrv.URL, emailSrv.URL, nil)
	proposal, email := d.Dispatch(context.Background(), record())

	if !proposal.Succeeded() {
		t.Errorf("proposal outcome = %v, want success", proposal.Kind)
	}
	if !email.Succeeded() {
		t.Errorf("email outcome = %v, want success", email.Kind)
	}
	if proposalPayload["purpose"] != "proposal" {
		t.Errorf("proposal purpose = %v", proposalPayload["purpose"])
	}
	if emailPayload["purpose"] != "email" {
		t.Errorf("email purpose = %v", emailPayload["purpose"])
	}
	if proposalPayload["clientCompany"] != "Acme Corp" {
		t.Errorf("record not serialized into payload: %v", proposalPayload)
	}
	if _, ok := proposalPayload["submittedAt"].(string); !ok {
		t.Error("payload missing submittedAt timestamp")
	}
}

func TestDispatch_UnconfiguredEndpoints(t *testing.T) {
	d := New("", "", nil)
	proposal, email := d.Dispatch(context.Background(), record())

	if proposal.Kind != domain.OutcomeUnconfigured {
		t.Errorf("proposal outcome = %v, want unconfigured", proposal.Kind)
	}
	if email.Kind != domain.OutcomeUnconfigured {
		t.Errorf("email outcome = %v, want unconfigured", email.Kind)
	}
}

func TestDispatch_FailureDoesNotBlockOther(t *testing.T) {
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer okSrv.Close()

	// Unroutable address: transport failure for the proposal endpoint.
	d := New("http://127.0.0.1:1", okSrv.URL, nil)
	proposal, email := d.Dispatch(context.Background(), record())

	if proposal.Kind != domain.OutcomeNetworkFailure {
		t.Errorf("proposal outcome = %v, want network failure", proposal.Kind)
	}
	if proposal.ErrMessage == "" {
		t.Error("network failure should carry a message")
	}
	if !email.Succeeded() {
		t.Errorf("email outcome = %v, want success despite proposal failure", email.Kind)
	}
}

func TestDispatch_HTTPErrorCaptured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"webhook not registered"}`))
	}))
	defer srv.Close()

	d := New(srv.URL, "", nil)
	proposal, _ := d.Dispatch(context.Background(), record())

	if proposal.Kind != domain.OutcomeHTTPError {
		t.Fatalf("outcome = %v, want http error", proposal.Kind)
	}
	if proposal.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", proposal.StatusCode)
	}
	if string(proposal.Body) != `{"message":"webhook not registered"}` {
		t.Errorf("body = %q", proposal.Body)
	}
}

func TestDispatch_SuccessCapturesHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="acme.pdf"`)
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	d := New(srv.URL, "", nil)
	proposal, _ := d.Dispatch(context.Background(), record())

	if !proposal.Succeeded() {
		t.Fatalf("outcome = %v, want success", proposal.Kind)
	}
	if proposal.ContentType != "application/pdf" {
		t.Errorf("content type = %q", proposal.ContentType)
	}
	if proposal.ContentDisposition != `attachment; filename="acme.pdf"` {
		t.Errorf("disposition = %q", proposal.ContentDisposition)
	}
	if string(proposal.Body) != "%PDF-1.4" {
		t.Errorf("body = %q", proposal.Body)
	}
}

func TestDispatch_InjectedTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	d := New(slow.URL, "", nil, WithTimeout(50*time.Millisecond))
	proposal, _ := d.Dispatch(context.Background(), record())

	if proposal.Kind != domain.OutcomeNetworkFailure {
		t.Errorf("outcome = %v, want network failure from timeout", proposal.Kind)
	}
}
