package reconcile

import (
	"strings"
	"testing"
	"time"

	"github.com/proposalforge/proposal-gateway/internal/domain"
)

func record() *domain.ProposalRecord {
	return &domain.ProposalRecord{ClientCompany: "Acme Corp", ServiceName: "Redesign"}
}

func success() domain.WebhookOutcome {
	return domain.WebhookOutcome{Kind: domain.OutcomeSuccess, StatusCode: 200}
}

func networkFailure() domain.WebhookOutcome {
	return domain.WebhookOutcome{Kind: domain.OutcomeNetworkFailure, ErrMessage: "connection refused"}
}

func TestResult_Precedence(t *testing.T) {
	tests := []struct {
		name         string
		proposal     domain.WebhookOutcome
		backup       domain.LocalBackup
		wantSuccess  bool
		wantHookErr  bool
		wantFormData bool
	}{
		{
			name:        "webhook success wins regardless of backup",
			proposal:    success(),
			backup:      domain.LocalBackup{Success: false},
			wantSuccess: true,
		},
		{
			name:         "webhook failure with backup is degraded success",
			proposal:     networkFailure(),
			backup:       domain.LocalBackup{Success: true, Filename: "proposal-acme-1.json"},
			wantSuccess:  true,
			wantHookErr:  true,
			wantFormData: true,
		},
		{
			name:         "both failed is soft failure",
			proposal:     networkFailure(),
			backup:       domain.LocalBackup{Success: false},
			wantSuccess:  false,
			wantHookErr:  true,
			wantFormData: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Result(Input{
				Record:          record(),
				ProposalOutcome: tt.proposal,
				Backup:          tt.backup,
			})

			if result.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v", result.Success, tt.wantSuccess)
			}
			if tt.wantHookErr && result.WebhookError == "" {
				t.Error("expected WebhookError to be populated")
			}
			if !tt.wantHookErr && result.WebhookError != "" {
				t.Errorf("WebhookError = %q, want empty", result.WebhookError)
			}
			if tt.wantFormData && result.FormData == nil {
				t.Error("expected FormData for client-side regeneration")
			}
			if result.Message == "" {
				t.Error("every result carries a message")
			}
		})
	}
}

func TestResult_AttachesArtifactsOnSuccess(t *testing.T) {
	file := &domain.FileArtifact{FileName: "x.pdf"}
	email := &domain.EmailArtifact{Subject: "Proposal for Acme Corp"}

	result := Result(Input{
		Record:          record(),
		ProposalOutcome: success(),
		EmailOutcome:    success(),
		File:            file,
		Email:           email,
	})

	if result.FileData != file {
		t.Error("FileData not attached")
	}
	if result.EmailData != email {
		t.Error("EmailData not attached")
	}
	if !result.EmailSent {
		t.Error("EmailSent should reflect the email outcome")
	}
}

func TestResult_EmailSentFalseOnEmailFailure(t *testing.T) {
	result := Result(Input{
		Record:          record(),
		ProposalOutcome: success(),
		EmailOutcome:    networkFailure(),
		Email:           &domain.EmailArtifact{Subject: "fallback"},
	})

	if result.EmailSent {
		t.Error("EmailSent should be false when the email call failed")
	}
	if result.EmailData == nil {
		t.Error("fallback email artifact should still be attached")
	}
}

func TestResult_BackupFilenameIncluded(t *testing.T) {
	result := Result(Input{
		Record:          record(),
		ProposalOutcome: networkFailure(),
		Backup:          domain.LocalBackup{Success: true, Filename: "proposal-acme-1.json"},
	})

	if result.LocalBackup == nil || result.LocalBackup.Filename != "proposal-acme-1.json" {
		t.Errorf("LocalBackup = %+v", result.LocalBackup)
	}
}

func TestResult_WebhookNotActivated404(t *testing.T) {
	result := Result(Input{
		Record: record(),
		ProposalOutcome: domain.WebhookOutcome{
			Kind:       domain.OutcomeHTTPError,
			StatusCode: 404,
			Body:       []byte(`{"message":"The requested webhook is not registered"}`),
		},
	})

	if !strings.Contains(result.WebhookError, "activated") {
		t.Errorf("WebhookError = %q, want activation hint", result.WebhookError)
	}
}

func TestResult_Generic404Unchanged(t *testing.T) {
	result := Result(Input{
		Record: record(),
		ProposalOutcome: domain.WebhookOutcome{
			Kind:       domain.OutcomeHTTPError,
			StatusCode: 404,
			Body:       []byte(`{"message":"no such page"}`),
		},
	})

	if strings.Contains(result.WebhookError, "activated") {
		t.Errorf("WebhookError = %q, generic 404 must not get the activation hint", result.WebhookError)
	}
	if !strings.Contains(result.WebhookError, "404") {
		t.Errorf("WebhookError = %q, want status included", result.WebhookError)
	}
}

func TestResult_Timestamp(t *testing.T) {
	result := Result(Input{Record: record(), ProposalOutcome: success()})

	ts, err := time.Parse(time.RFC3339, result.Timestamp)
	if err != nil {
		t.Fatalf("Timestamp %q is not RFC3339: %v", result.Timestamp, err)
	}
	if time.Since(ts) > time.Minute {
		t.Errorf("Timestamp %v is stale", ts)
	}
}

func TestResult_UnconfiguredWebhook(t *testing.T) {
	result := Result(Input{
		Record:          record(),
		ProposalOutcome: domain.WebhookOutcome{Kind: domain.OutcomeUnconfigured},
		Backup:          domain.LocalBackup{Success: true, Filename: "f.json"},
	})

	if !result.Success {
		t.Error("backup success should yield degraded success")
	}
	if !strings.Contains(result.WebhookError, "configured") {
		t.Errorf("WebhookError = %q", result.WebhookError)
	}
}
