// Package domain defines the canonical types exchanged between the
// submission pipeline stages: the validated proposal record, per-webhook
// outcomes, extracted artifacts, and the normalized submission result.
package domain

// LineItem is an optional structured pricing row on a proposal.
type LineItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// ProposalRecord is the validated, typed representation of a submitted
// proposal form. It is created once by the validator and never mutated.
type ProposalRecord struct {
	ClientCompany    string     `json:"clientCompany"`
	ClientContact    string     `json:"clientContact"`
	ClientIndustry   string     `json:"clientIndustry,omitempty"`
	ServiceName      string     `json:"serviceName"`
	SolutionOverview string     `json:"solutionOverview"`
	KeyDeliverable   string     `json:"keyDeliverable"`
	PricingDetails   string     `json:"pricingDetails"`
	Timeline         string     `json:"timeline"`
	CompanyName      string     `json:"companyName"`
	SenderName       string     `json:"senderName"`
	ContactDetails   string     `json:"contactDetails"`
	LineItems        []LineItem `json:"lineItems,omitempty"`
}

// OutcomeKind classifies the result of a single outbound webhook call.
type OutcomeKind int

const (
	// OutcomeUnconfigured means no URL was configured for the endpoint.
	OutcomeUnconfigured OutcomeKind = iota

	// OutcomeNetworkFailure means the call failed at the transport level.
	OutcomeNetworkFailure

	// OutcomeHTTPError means the endpoint answered with a non-2xx status.
	OutcomeHTTPError

	// OutcomeSuccess means the endpoint answered 2xx; Body holds the raw
	// response for the interpreter.
	OutcomeSuccess
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeUnconfigured:
		return "unconfigured"
	case OutcomeNetworkFailure:
		return "network_failure"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// WebhookOutcome is the captured result of one outbound webhook call.
// Every branch of the call (including transport failure) is represented
// as a value; the dispatcher never lets an error escape as a Go error.
type WebhookOutcome struct {
	Kind OutcomeKind

	// ErrMessage is set for network failures.
	ErrMessage string

	// StatusCode and Body are set for HTTP errors and successes.
	StatusCode int
	Body       []byte

	// ContentType and ContentDisposition are the relevant response
	// headers on success, used by the interpreter.
	ContentType        string
	ContentDisposition string
}

// Succeeded reports whether the call completed with a 2xx status.
func (o WebhookOutcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// FileArtifact describes a generated deliverable extracted from a
// proposal-webhook response. FileURL is a data URI carrying the bytes so
// the client can retrieve them without a second round trip.
type FileArtifact struct {
	FileName      string `json:"fileName"`
	FileExtension string `json:"fileExtension"`
	MimeType      string `json:"mimeType"`
	FileSize      int    `json:"fileSize"`
	FileURL       string `json:"fileUrl"`
	FileContent   string `json:"fileContent,omitempty"`
}

// EmailArtifact is the extracted or synthesized email notification
// preview attached to a submission result.
type EmailArtifact struct {
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	To          string `json:"to"`
	From        string `json:"from,omitempty"`
	PreviewHTML string `json:"previewHtml,omitempty"`
}

// LocalBackup reports the outcome of the best-effort backup write.
type LocalBackup struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename,omitempty"`
}

// SubmissionResult is the single normalized contract returned to the
// caller. Its shape is stable regardless of which internal path produced
// it, so the UI can always branch on the success field rather than on
// transport status.
type SubmissionResult struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	WebhookError string          `json:"webhookError,omitempty"`
	LocalBackup  *LocalBackup    `json:"localBackup,omitempty"`
	FileData     *FileArtifact   `json:"fileData,omitempty"`
	EmailSent    bool            `json:"emailSent"`
	EmailData    *EmailArtifact  `json:"emailData,omitempty"`
	FormData     *ProposalRecord `json:"formData,omitempty"`
	Timestamp    string          `json:"timestamp,omitempty"`
	Error        string          `json:"error,omitempty"`
}
