package interpret

import (
	"regexp"
	"strings"

	"github.com/proposalforge/proposal-gateway/internal/domain"
)

// The email webhook sometimes answers with one flat text blob produced
// by an upstream automation tool. These heuristics reconstruct an email
// preview from it. Each header is located by an ordered pattern list
// (first match wins) with a record-derived default; the whole pass is
// total and falls back to the synthesized preview.

var subjectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^Subject:[ \t]*(.+)$`),
	regexp.MustCompile(`(?mi)^\*{0,2}subject\*{0,2}[ \t]*:[ \t]*(.+)$`),
	regexp.MustCompile(`(?i)subject line[ \t]*:[ \t]*([^\n]+)`),
}

var fromPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^From:[ \t]*(.+)$`),
	regexp.MustCompile(`(?mi)^\*{0,2}from\*{0,2}[ \t]*:[ \t]*(.+)$`),
}

var toPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^To:[ \t]*(.+)$`),
	regexp.MustCompile(`(?mi)^\*{0,2}to\*{0,2}[ \t]*:[ \t]*(.+)$`),
}

// greetingMarkers are tried in order; the first one found preceded by a
// blank line marks the start of the message body.
var greetingMarkers = []string{"Dear", "Hello", "Hi", "Greetings"}

// extractEmailText reconstructs an EmailArtifact from a flat text blob.
func extractEmailText(text string, record *domain.ProposalRecord) *domain.EmailArtifact {
	fallback := SynthesizeEmail(record)

	artifact := &domain.EmailArtifact{
		Subject: firstMatch(subjectPatterns, text, fallback.Subject),
		From:    firstMatch(fromPatterns, text, fallback.From),
		To:      firstMatch(toPatterns, text, fallback.To),
	}

	body := locateBody(text)
	if strings.TrimSpace(body) == "" {
		return fallback
	}
	artifact.Body = substitutePlaceholders(strings.TrimSpace(body), record)
	return artifact
}

// firstMatch returns the first capture of the first pattern that
// matches, or the fallback.
func firstMatch(patterns []*regexp.Regexp, text, fallback string) string {
	for _, rx := range patterns {
		if m := rx.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return fallback
}

// locateBody finds the message body inside the blob: the first greeting
// marker preceded by a blank line, else the content after the first
// blank-line-separated block, else everything after the fifth line.
func locateBody(text string) string {
	for _, marker := range greetingMarkers {
		rx := regexp.MustCompile(`\n[ \t]*\n[ \t]*(` + marker + `\b)`)
		if loc := rx.FindStringSubmatchIndex(text); loc != nil {
			return text[loc[2]:]
		}
		// Greeting on the very first line counts too.
		if strings.HasPrefix(text, marker+" ") || strings.HasPrefix(text, marker+",") {
			return text
		}
	}

	if parts := strings.SplitN(text, "\n\n", 2); len(parts) == 2 {
		return parts[1]
	}

	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		return strings.Join(lines[5:], "\n")
	}
	return ""
}

// placeholder maps a bracket token the automation tool leaves in its
// output to a value derived from the proposal record (empty blanks the
// token).
type placeholder struct {
	token string
	value func(*domain.ProposalRecord) string
}

var placeholders = []placeholder{
	{"[Your Name]", func(r *domain.ProposalRecord) string { return r.SenderName }},
	{"[Sender Name]", func(r *domain.ProposalRecord) string { return r.SenderName }},
	{"[Your Title]", func(r *domain.ProposalRecord) string { return "" }},
	{"[Your Position]", func(r *domain.ProposalRecord) string { return "" }},
	{"[Your Company]", func(r *domain.ProposalRecord) string { return r.CompanyName }},
	{"[Company Name]", func(r *domain.ProposalRecord) string { return r.CompanyName }},
	{"[Client Name]", func(r *domain.ProposalRecord) string { return r.ClientContact }},
	{"[Phone]", func(r *domain.ProposalRecord) string { return "" }},
	{"[Phone Number]", func(r *domain.ProposalRecord) string { return "" }},
	{"[Email]", func(r *domain.ProposalRecord) string { return r.ContactDetails }},
	{"[Email Address]", func(r *domain.ProposalRecord) string { return r.ContactDetails }},
	{"[Website]", func(r *domain.ProposalRecord) string { return "" }},
	{"[Your Contact Information]", func(r *domain.ProposalRecord) string { return r.ContactDetails }},
}

// substitutePlaceholders replaces known bracket tokens with record
// values, blanking the ones that have no counterpart.
func substitutePlaceholders(body string, record *domain.ProposalRecord) string {
	for _, p := range placeholders {
		if !strings.Contains(body, p.token) {
			continue
		}
		body = strings.ReplaceAll(body, p.token, p.value(record))
	}
	// Collapse the whitespace debris blanked tokens leave behind.
	body = regexp.MustCompile(`[ \t]+\n`).ReplaceAllString(body, "\n")
	body = regexp.MustCompile(`\n{3,}`).ReplaceAllString(body, "\n\n")
	return body
}
