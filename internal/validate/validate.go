// Package validate coerces untyped submission JSON into a typed
// ProposalRecord, reporting failures as a field-level error map rather
// than an error value, so the handler can translate them into one
// 400-class response.
package validate

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/proposalforge/proposal-gateway/internal/domain"
)

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// fieldDef describes one proposal form field.
type fieldDef struct {
	name     string
	label    string
	required bool
	value    func(*rawProposal) string
}

// rawProposal mirrors the submitted JSON. Unknown extra fields are
// ignored by the decoder rather than rejected.
type rawProposal struct {
	ClientCompany    string        `json:"clientCompany"`
	ClientContact    string        `json:"clientContact"`
	ClientIndustry   string        `json:"clientIndustry"`
	ServiceName      string        `json:"serviceName"`
	SolutionOverview string        `json:"solutionOverview"`
	KeyDeliverable   string        `json:"keyDeliverable"`
	PricingDetails   string        `json:"pricingDetails"`
	Timeline         string        `json:"timeline"`
	CompanyName      string        `json:"companyName"`
	SenderName       string        `json:"senderName"`
	ContactDetails   string        `json:"contactDetails"`
	LineItems        []rawLineItem `json:"lineItems"`
}

type rawLineItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

var fieldDefs = []fieldDef{
	{"clientCompany", "Client Company Name", true, func(p *rawProposal) string { return p.ClientCompany }},
	{"clientContact", "Client Contact Person", true, func(p *rawProposal) string { return p.ClientContact }},
	{"clientIndustry", "Client Industry", false, func(p *rawProposal) string { return p.ClientIndustry }},
	{"serviceName", "Service/Project Name", true, func(p *rawProposal) string { return p.ServiceName }},
	{"solutionOverview", "Solution Overview", true, func(p *rawProposal) string { return p.SolutionOverview }},
	{"keyDeliverable", "Key Deliverable", true, func(p *rawProposal) string { return p.KeyDeliverable }},
	{"pricingDetails", "Pricing Details", true, func(p *rawProposal) string { return p.PricingDetails }},
	{"timeline", "Timeline", true, func(p *rawProposal) string { return p.Timeline }},
	{"companyName", "Company Name", true, func(p *rawProposal) string { return p.CompanyName }},
	{"senderName", "Sender's Name and Title", true, func(p *rawProposal) string { return p.SenderName }},
	{"contactDetails", "Contact Details", true, func(p *rawProposal) string { return p.ContactDetails }},
}

// Proposal validates a raw JSON submission. On success it returns the
// typed record and a nil error map. On failure the error map holds one
// message per offending field.
func Proposal(body []byte) (*domain.ProposalRecord, map[string]string) {
	var raw rawProposal
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, map[string]string{"_body": "request body must be a JSON object"}
	}

	errs := make(map[string]string)

	for _, def := range fieldDefs {
		value := strings.TrimSpace(def.value(&raw))
		if def.required && value == "" {
			errs[def.name] = def.label + " is required"
		}
	}

	// Email validation applies only when the contact field looks like an
	// email address at all.
	if cd := strings.TrimSpace(raw.ContactDetails); cd != "" && strings.Contains(cd, "@") {
		if !emailRx.MatchString(cd) {
			errs["contactDetails"] = "Please enter a valid email address"
		}
	}

	items := make([]domain.LineItem, 0, len(raw.LineItems))
	for i, li := range raw.LineItems {
		key := "lineItems[" + itoa(i) + "]"
		switch {
		case strings.TrimSpace(li.Name) == "":
			errs[key+".name"] = "Line item name is required"
		case li.Quantity <= 0 || li.Quantity != float64(int(li.Quantity)):
			errs[key+".quantity"] = "Quantity must be a positive whole number"
		case li.UnitPrice <= 0:
			errs[key+".unitPrice"] = "Unit price must be positive"
		default:
			items = append(items, domain.LineItem{
				Name:        strings.TrimSpace(li.Name),
				Description: strings.TrimSpace(li.Description),
				Quantity:    int(li.Quantity),
				UnitPrice:   li.UnitPrice,
			})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	record := &domain.ProposalRecord{
		ClientCompany:    strings.TrimSpace(raw.ClientCompany),
		ClientContact:    strings.TrimSpace(raw.ClientContact),
		ClientIndustry:   strings.TrimSpace(raw.ClientIndustry),
		ServiceName:      strings.TrimSpace(raw.ServiceName),
		SolutionOverview: strings.TrimSpace(raw.SolutionOverview),
		KeyDeliverable:   strings.TrimSpace(raw.KeyDeliverable),
		PricingDetails:   strings.TrimSpace(raw.PricingDetails),
		Timeline:         strings.TrimSpace(raw.Timeline),
		CompanyName:      strings.TrimSpace(raw.CompanyName),
		SenderName:       strings.TrimSpace(raw.SenderName),
		ContactDetails:   strings.TrimSpace(raw.ContactDetails),
	}
	if len(items) > 0 {
		record.LineItems = items
	}
	return record, nil
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}
