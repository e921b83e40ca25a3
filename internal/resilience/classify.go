package resilience

import (
	"context"
	"errors"
	"strings"
)

// Kind buckets pipeline failures into the categories the chat surface
// distinguishes. Every bucket maps to a fixed user-facing message so raw
// upstream errors never leak into responses.
type Kind int

const (
	// KindNone means no failure.
	KindNone Kind = iota
	// KindValidationFailure covers rejected input (empty message, bad lead fields).
	KindValidationFailure
	// KindUpstreamTimeout covers deadline expiry anywhere in the pipeline.
	KindUpstreamTimeout
	// KindUpstreamQuotaExceeded covers model-provider rate and quota limits.
	KindUpstreamQuotaExceeded
	// KindUpstreamUnavailable covers every other upstream failure.
	KindUpstreamUnavailable
	// KindGenerationEmpty means the model call succeeded but produced no usable text.
	KindGenerationEmpty
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidationFailure:
		return "validation_failure"
	case KindUpstreamTimeout:
		return "upstream_timeout"
	case KindUpstreamQuotaExceeded:
		return "upstream_quota_exceeded"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindGenerationEmpty:
		return "generation_empty"
	default:
		return "unknown"
	}
}

// quotaPatterns are the substrings that identify provider quota or rate
// limit errors across SDK versions.
var quotaPatterns = []string{
	"429",
	"resource_exhausted",
	"quota",
}

// Classify maps an error to its failure Kind. Timeout detection runs before
// the quota check: a quota-limited call that then times out reads as a
// timeout.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindUpstreamTimeout
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "deadline exceeded") {
		return KindUpstreamTimeout
	}
	for _, p := range quotaPatterns {
		if strings.Contains(msg, p) {
			return KindUpstreamQuotaExceeded
		}
	}

	return KindUpstreamUnavailable
}

// Contact carries the contact details injected into fallback messages.
type Contact struct {
	Phone string
	Email string
}

// Fallback renders the fixed user-facing message for a failure Kind. The
// returned text is the complete answer sent to the user.
func Fallback(kind Kind, contact Contact) string {
	switch kind {
	case KindUpstreamTimeout:
		return "I'm sorry, that took longer than expected. Please try again, or reach us directly at " +
			contact.Phone + " or " + contact.Email + "."
	case KindUpstreamQuotaExceeded:
		return "I'm experiencing high demand right now and can't answer at the moment. " +
			"Please call us at " + contact.Phone + " or email " + contact.Email +
			" and our team will help you right away."
	case KindGenerationEmpty:
		return "I'm sorry, I couldn't put together a complete answer to that. " +
			"For detailed assistance, please call us at " + contact.Phone +
			" or email " + contact.Email + "."
	default:
		return "I'm sorry, something went wrong on our side. Please try again in a moment, " +
			"or contact us at " + contact.Phone + " or " + contact.Email + "."
	}
}
