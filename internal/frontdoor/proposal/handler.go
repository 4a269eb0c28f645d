// Package proposal exposes the submission endpoint: the HTTP surface
// over the gate, validator, backup writer, dispatcher, interpreter, and
// reconciler.
package proposal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/proposalforge/proposal-gateway/internal/auth"
	"github.com/proposalforge/proposal-gateway/internal/backup"
	"github.com/proposalforge/proposal-gateway/internal/dispatch"
	"github.com/proposalforge/proposal-gateway/internal/domain"
	"github.com/proposalforge/proposal-gateway/internal/interpret"
	"github.com/proposalforge/proposal-gateway/internal/ratelimit"
	"github.com/proposalforge/proposal-gateway/internal/reconcile"
	"github.com/proposalforge/proposal-gateway/internal/server"
	"github.com/proposalforge/proposal-gateway/internal/storage/sqlite"
	"github.com/proposalforge/proposal-gateway/internal/validate"
)

// Handler serves proposal submissions.
type Handler struct {
	gate        *auth.Gate
	limiter     *ratelimit.Limiter
	backups     *backup.Writer
	dispatcher  *dispatch.Dispatcher
	interpreter *interpret.Interpreter
	history     *sqlite.Store
	logger      *slog.Logger
}

// NewHandler wires the submission pipeline. history may be nil to
// disable the history store.
func NewHandler(
	gate *auth.Gate,
	limiter *ratelimit.Limiter,
	backups *backup.Writer,
	dispatcher *dispatch.Dispatcher,
	interpreter *interpret.Interpreter,
	history *sqlite.Store,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		gate:        gate,
		limiter:     limiter,
		backups:     backups,
		dispatcher:  dispatcher,
		interpreter: interpreter,
		history:     history,
		logger:      logger,
	}
}

// HandleSubmit processes one proposal submission. Only validation, auth,
// and rate-limit failures produce non-200 responses; every downstream
// failure is folded into a 200 SubmissionResult so the caller can
// always branch on the success field.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Unexpected panics anywhere below become a soft-failure result
	// rather than a 500, keeping the contract uniform for the UI.
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("submission pipeline panicked", slog.Any("panic", rec))
			writeJSON(w, http.StatusOK, &domain.SubmissionResult{
				Success:   false,
				Message:   "Your submission was received but could not be fully processed",
				Error:     fmt.Sprintf("internal error: %v", rec),
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
		}
	}()

	if apiErr := h.gate.Check(r); apiErr != nil {
		server.AddError(ctx, apiErr)
		writeAPIError(w, apiErr)
		return
	}

	clientKey := ratelimit.ClientKey(r)
	if !h.limiter.Allow(clientKey) {
		h.logger.Warn("rate limit exceeded", slog.String("client", clientKey))
		writeAPIError(w, domain.ErrRateLimit("too many requests, please try again later"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeAPIError(w, domain.ErrInvalidRequest("failed to read request body"))
		return
	}

	record, fieldErrs := validate.Proposal(body)
	if fieldErrs != nil {
		writeAPIError(w, domain.ErrInvalidRequest("proposal validation failed").WithFields(fieldErrs))
		return
	}

	server.AddLogField(ctx, "client_company", record.ClientCompany)

	// Backup has no data dependency on the webhook calls; run it
	// alongside the dispatch and join before reconciling.
	backupCh := make(chan domain.LocalBackup, 1)
	go func() {
		backupCh <- h.backups.Write(record)
	}()

	proposalOut, emailOut := h.dispatcher.Dispatch(ctx, record)
	bk := <-backupCh

	file := h.interpreter.FileArtifact(proposalOut)
	email := h.interpreter.EmailArtifact(emailOut, record)

	result := reconcile.Result(reconcile.Input{
		Record:          record,
		ProposalOutcome: proposalOut,
		EmailOutcome:    emailOut,
		Backup:          bk,
		File:            file,
		Email:           email,
	})

	h.recordHistory(ctx, record, result)

	// A binary PDF from the webhook streams straight back to the client
	// with its original headers.
	if proposalOut.Succeeded() && file != nil && strings.Contains(proposalOut.ContentType, "application/pdf") {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
		w.WriteHeader(http.StatusOK)
		w.Write(proposalOut.Body)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleRecent lists recent submission history rows.
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	subs, err := h.history.Recent(r.Context(), 50)
	if err != nil {
		server.AddError(r.Context(), err)
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	type row struct {
		ID            string    `json:"id"`
		ClientCompany string    `json:"clientCompany"`
		ServiceName   string    `json:"serviceName"`
		Success       bool      `json:"success"`
		Message       string    `json:"message"`
		CreatedAt     time.Time `json:"createdAt"`
	}
	rows := make([]row, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, row{
			ID:            s.ID,
			ClientCompany: s.ClientCompany,
			ServiceName:   s.ServiceName,
			Success:       s.Success,
			Message:       s.Message,
			CreatedAt:     s.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleHealth answers liveness probes.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recordHistory is best-effort: a store failure is logged and absorbed.
func (h *Handler) recordHistory(ctx context.Context, record *domain.ProposalRecord, result *domain.SubmissionResult) {
	if h.history == nil {
		return
	}

	sub := sqlite.Submission{
		ClientCompany: record.ClientCompany,
		ServiceName:   record.ServiceName,
		Success:       result.Success,
		Message:       result.Message,
		WebhookError:  result.WebhookError,
	}
	if result.LocalBackup != nil {
		sub.BackupFile = result.LocalBackup.Filename
	}

	if _, err := h.history.Record(ctx, sub); err != nil {
		h.logger.Error("failed to record submission history", slog.String("error", err.Error()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, apiErr *domain.APIError) {
	writeJSON(w, apiErr.HTTPStatusCode(), map[string]any{"error": apiErr})
}
