// Package reconcile combines the webhook outcomes and the local backup
// outcome into the single normalized SubmissionResult the caller
// depends on.
package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/proposalforge/proposal-gateway/internal/domain"
)

// Input carries everything the reconciler needs for one submission.
type Input struct {
	Record          *domain.ProposalRecord
	ProposalOutcome domain.WebhookOutcome
	EmailOutcome    domain.WebhookOutcome
	Backup          domain.LocalBackup
	File            *domain.FileArtifact
	Email           *domain.EmailArtifact
}

// Result applies the fallback precedence: webhook success, then local
// backup (degraded success), then soft failure. The returned contract
// is stable regardless of which path produced it.
func Result(in Input) *domain.SubmissionResult {
	result := &domain.SubmissionResult{
		EmailSent: in.EmailOutcome.Succeeded(),
		EmailData: in.Email,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if in.Backup.Success || in.Backup.Filename != "" {
		result.LocalBackup = &in.Backup
	}

	if in.ProposalOutcome.Succeeded() {
		result.Success = true
		result.Message = "Proposal submitted and processed successfully"
		result.FileData = in.File
		return result
	}

	webhookErr := describeOutcome(in.ProposalOutcome)

	if in.Backup.Success {
		result.Success = true
		result.Message = "The proposal service could not be reached, but your proposal was saved safely and can be regenerated"
		result.WebhookError = webhookErr
		result.FormData = in.Record
		return result
	}

	result.Success = false
	result.Message = "Your submission was received but could not be fully processed"
	result.WebhookError = webhookErr
	result.FormData = in.Record
	return result
}

// describeOutcome renders a proposal-webhook failure for the caller.
// A 404 whose JSON body message mentions "webhook" is a known
// operational failure mode of the automation service (the workflow is
// registered but not active), so it gets a friendlier hint instead of a
// generic 404.
func describeOutcome(o domain.WebhookOutcome) string {
	switch o.Kind {
	case domain.OutcomeUnconfigured:
		return "no proposal webhook is configured"

	case domain.OutcomeNetworkFailure:
		return "could not reach the proposal service: " + o.ErrMessage

	case domain.OutcomeHTTPError:
		if o.StatusCode == 404 {
			if msg := gjson.GetBytes(o.Body, "message"); msg.Exists() &&
				strings.Contains(strings.ToLower(msg.String()), "webhook") {
				return "The proposal workflow needs to be activated in the automation service before submissions can be processed"
			}
		}
		body := strings.TrimSpace(string(o.Body))
		if len(body) > 200 {
			body = body[:200]
		}
		if body == "" {
			return fmt.Sprintf("proposal service returned status %d", o.StatusCode)
		}
		return fmt.Sprintf("proposal service returned status %d: %s", o.StatusCode, body)

	default:
		return ""
	}
}
