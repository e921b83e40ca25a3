package intent

import (
	"regexp"
	"strings"
)

// Type tags the classified purpose of a user message.
type Type string

const (
	TypeSubService     Type = "sub_service"
	TypeServicesList   Type = "services_list"
	TypePricingContact Type = "pricing_contact"
	TypeRestricted     Type = "restricted"
	TypeGeneral        Type = "general"
)

// Result is the outcome of classifying one message. Immutable once produced.
type Result struct {
	Type       Type
	ServiceKey string // set only for TypeSubService
	Answer     string // canned response, empty for TypeGeneral
	FollowUp   string
	// External marks a general question that clearly reaches beyond the
	// agency itself (e.g. "top ad agencies in Delhi"). The chat service
	// pre-escalates these to external search.
	External bool
}

// ShowLeadForm reports whether the widget should open the lead form.
func (r Result) ShowLeadForm() bool {
	return r.Type == TypePricingContact
}

// Classifier matches normalized input text against the static tables.
// It is a pure function of its tables plus the input; safe for concurrent use.
type Classifier struct {
	tables        *Tables
	externalMarks []string
}

// NewClassifier builds a classifier over the given tables. externalMarks is
// the configurable external-query phrase list (lower-case).
func NewClassifier(tables *Tables, externalMarks []string) *Classifier {
	return &Classifier{tables: tables, externalMarks: externalMarks}
}

var spaceRun = regexp.MustCompile(`\s+`)

// Normalize lower-cases text and folds punctuation to spaces so that keyword
// matching is insensitive to incidental separators ("e-commerce", "UI/UX").
func Normalize(text string) string {
	text = strings.ToLower(text)
	r := strings.NewReplacer(",", " ", ".", " ", "-", " ", "_", " ", "/", " ", "?", " ", "!", " ")
	text = r.Replace(text)
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}

// containsToken reports whether norm contains tok on word boundaries.
// Both must already be normalized.
func containsToken(norm, tok string) bool {
	return strings.Contains(" "+norm+" ", " "+tok+" ")
}

// Classify runs the strict priority order, first match wins: restricted,
// external override, pricing/lead, sub-service, services list, general.
func (c *Classifier) Classify(message string) Result {
	lower := strings.ToLower(message)
	norm := Normalize(message)

	// The safety check runs before everything else.
	for _, tok := range c.tables.RestrictedTokens {
		if containsToken(norm, tok) {
			return Result{Type: TypeRestricted, Answer: c.tables.RestrictedResponse}
		}
	}

	// External markers win over service keywords so that "top ad agencies in
	// Delhi" is not hijacked by the "advertising" key.
	for _, mark := range c.externalMarks {
		if strings.Contains(lower, mark) || strings.Contains(norm, Normalize(mark)) {
			return Result{Type: TypeGeneral, External: true}
		}
	}

	// Lead keywords outrank service keys: "how much does web development
	// cost" should open the lead form, not recite the web detail block.
	for _, kw := range c.tables.LeadKeywords {
		if containsToken(norm, kw) || (strings.Contains(kw, " ") && strings.Contains(lower, kw)) {
			return Result{Type: TypePricingContact, Answer: c.tables.PricingResponse}
		}
	}

	for _, svc := range c.tables.SubServices {
		for _, key := range svc.Keys {
			if strings.Contains(lower, key) || containsToken(norm, Normalize(key)) {
				return Result{Type: TypeSubService, ServiceKey: key, Answer: svc.Detail}
			}
		}
	}

	for _, pattern := range c.tables.ServicesListPatterns {
		if strings.Contains(lower, pattern) {
			return Result{
				Type:     TypeServicesList,
				Answer:   c.tables.ServicesListText,
				FollowUp: c.tables.ServicesListFollowUp,
			}
		}
	}

	return Result{Type: TypeGeneral}
}
