// Package interpret classifies raw webhook responses and extracts
// structured file and email artifacts from them. The external
// automation service answers with ad-hoc shapes (binary PDF, several
// JSON variants, free-text email blobs), so every path here is
// best-effort with a guaranteed fallback; interpretation never fails a
// request.
package interpret

import (
	"encoding/base64"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/proposalforge/proposal-gateway/internal/domain"
)

// Interpreter turns successful webhook outcomes into artifacts. It
// holds no state beyond a logger; interpretation is idempotent given
// the same raw response.
type Interpreter struct {
	logger *slog.Logger
}

// New creates an interpreter.
func New(logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{logger: logger}
}

var filenameRx = regexp.MustCompile(`filename="([^"]+)"`)

// FileArtifact extracts a deliverable from a successful
// proposal-webhook outcome. It returns nil when the response carries no
// recognizable file content.
func (in *Interpreter) FileArtifact(outcome domain.WebhookOutcome) *domain.FileArtifact {
	if !outcome.Succeeded() {
		return nil
	}

	ct := outcome.ContentType
	switch {
	case strings.Contains(ct, "application/pdf"):
		return pdfArtifact(outcome)

	case strings.Contains(ct, "application/json"):
		if fd := gjson.GetBytes(outcome.Body, "fileData"); fd.IsObject() {
			return liftFileData(fd)
		}
		return nil

	default:
		in.logger.Info("proposal webhook returned unhandled content type",
			slog.String("content_type", ct))
		return nil
	}
}

// pdfArtifact builds an artifact from a binary PDF response. The bytes
// are carried as a base64 data URI so the client can download them
// without another round trip.
func pdfArtifact(outcome domain.WebhookOutcome) *domain.FileArtifact {
	name := "proposal.pdf"
	if m := filenameRx.FindStringSubmatch(outcome.ContentDisposition); m != nil {
		name = m[1]
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}

	encoded := base64.StdEncoding.EncodeToString(outcome.Body)
	return &domain.FileArtifact{
		FileName:      name,
		FileExtension: "pdf",
		MimeType:      "application/pdf",
		FileSize:      len(outcome.Body),
		FileURL:       "data:application/pdf;base64," + encoded,
		FileContent:   encoded,
	}
}

// liftFileData copies a fileData JSON object into an artifact.
func liftFileData(fd gjson.Result) *domain.FileArtifact {
	artifact := &domain.FileArtifact{
		FileName:      fd.Get("fileName").String(),
		FileExtension: fd.Get("fileExtension").String(),
		MimeType:      fd.Get("mimeType").String(),
		FileSize:      int(fd.Get("fileSize").Int()),
		FileURL:       fd.Get("fileUrl").String(),
		FileContent:   fd.Get("fileContent").String(),
	}
	if artifact.FileName == "" {
		artifact.FileName = "proposal.pdf"
	}
	if artifact.FileExtension == "" {
		if i := strings.LastIndexByte(artifact.FileName, '.'); i >= 0 {
			artifact.FileExtension = artifact.FileName[i+1:]
		}
	}
	return artifact
}

// emailShape is the closed set of response shapes the email webhook has
// been observed to produce, in recognition precedence order.
type emailShape int

const (
	shapeArrayOutputText emailShape = iota
	shapeArrayJSONFields
	shapeEmailDataWrapper
	shapeEmailWrapper
	shapeDirectFields
	shapeUnrecognized
)

// classifyEmail resolves the shape of a parsed email-webhook body.
// First match wins.
func classifyEmail(body gjson.Result) (emailShape, gjson.Result) {
	if body.IsArray() {
		first := body.Get("0")
		if out := first.Get("output"); out.Type == gjson.String {
			return shapeArrayOutputText, out
		}
		if j := first.Get("json"); j.IsObject() && (j.Get("subject").Exists() || j.Get("body").Exists()) {
			return shapeArrayJSONFields, j
		}
		return shapeUnrecognized, gjson.Result{}
	}

	if ed := body.Get("emailData"); ed.IsObject() {
		return shapeEmailDataWrapper, ed
	}
	if e := body.Get("email"); e.IsObject() {
		return shapeEmailWrapper, e
	}
	if body.Get("subject").Exists() && body.Get("body").Exists() {
		return shapeDirectFields, body
	}
	return shapeUnrecognized, gjson.Result{}
}

// EmailArtifact extracts the email preview from an email-webhook
// outcome. It always returns a non-nil artifact: when the response is
// missing, malformed, or unrecognizable, a default preview is
// synthesized from the proposal record.
func (in *Interpreter) EmailArtifact(outcome domain.WebhookOutcome, record *domain.ProposalRecord) *domain.EmailArtifact {
	if !outcome.Succeeded() || !gjson.ValidBytes(outcome.Body) {
		return SynthesizeEmail(record)
	}

	shape, payload := classifyEmail(gjson.ParseBytes(outcome.Body))
	switch shape {
	case shapeArrayOutputText:
		return extractEmailText(payload.String(), record)

	case shapeArrayJSONFields, shapeEmailDataWrapper, shapeEmailWrapper, shapeDirectFields:
		return liftEmail(payload, record)

	default:
		in.logger.Info("email webhook response shape not recognized, synthesizing preview")
		return SynthesizeEmail(record)
	}
}

// liftEmail copies structured email fields, filling gaps from the
// record.
func liftEmail(e gjson.Result, record *domain.ProposalRecord) *domain.EmailArtifact {
	artifact := &domain.EmailArtifact{
		Subject:     e.Get("subject").String(),
		Body:        e.Get("body").String(),
		To:          e.Get("to").String(),
		From:        e.Get("from").String(),
		PreviewHTML: e.Get("previewHtml").String(),
	}

	fallback := SynthesizeEmail(record)
	if artifact.Subject == "" {
		artifact.Subject = fallback.Subject
	}
	if artifact.Body == "" {
		artifact.Body = fallback.Body
	}
	if artifact.To == "" {
		artifact.To = fallback.To
	}
	if artifact.From == "" {
		artifact.From = fallback.From
	}
	return artifact
}

// SynthesizeEmail builds the default email preview from the proposal
// record. It is the guaranteed fallback for every email path.
func SynthesizeEmail(record *domain.ProposalRecord) *domain.EmailArtifact {
	var b strings.Builder
	b.WriteString("Dear " + record.ClientContact + ",\n\n")
	b.WriteString("Please find attached our proposal for " + record.ServiceName + ".\n\n")
	if record.SolutionOverview != "" {
		b.WriteString(record.SolutionOverview + "\n\n")
	}
	b.WriteString("We look forward to working with " + record.ClientCompany + ".\n\n")
	b.WriteString("Best regards,\n")
	b.WriteString(record.SenderName + "\n")
	b.WriteString(record.CompanyName)

	return &domain.EmailArtifact{
		Subject: "Proposal for " + record.ClientCompany,
		Body:    b.String(),
		To:      record.ClientContact,
		From:    record.SenderName,
	}
}
