package server

import (
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ritz-media/chat-service/internal/model"
	"github.com/ritz-media/chat-service/pkg/crm"
)

var (
	nameRe     = regexp.MustCompile(`^[a-zA-Z\s]{3,}$`)
	nonDigitRe = regexp.MustCompile(`[^\d]`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// blockedEmailDomains are obviously-fake domains rejected outright.
var blockedEmailDomains = map[string]bool{
	"test.com":    true,
	"example.com": true,
	"fake.com":    true,
	"dummy.com":   true,
}

func (s *Server) handleSubmitLead(w http.ResponseWriter, r *http.Request) {
	var req model.LeadRequest
	if !readJSON(w, r, &req) {
		return
	}

	lead, fieldErr := validateLead(req)
	if fieldErr != "" {
		writeJSON(w, http.StatusUnprocessableEntity, model.LeadResponse{
			Success: false,
			Message: fieldErr,
		})
		return
	}

	if err := s.crm.Submit(r.Context(), lead); err != nil {
		zap.L().Error("server: lead submission failed", zap.Error(err))
		writeJSON(w, http.StatusOK, model.LeadResponse{
			Success: false,
			Message: "Submission failed. Please try again.",
		})
		return
	}

	writeJSON(w, http.StatusOK, model.LeadResponse{
		Success: true,
		Message: "Thanks! Our team will reach out soon.",
	})
}

// validateLead applies the field rules and returns a normalized lead or the
// first field-level error message.
func validateLead(req model.LeadRequest) (crm.Lead, string) {
	name := strings.TrimSpace(req.Name)
	if !nameRe.MatchString(name) {
		return crm.Lead{}, "Name must be at least 3 letters and contain only alphabets"
	}

	phone := nonDigitRe.ReplaceAllString(req.Phone, "")
	if len(phone) != 10 {
		return crm.Lead{}, "Phone number must be exactly 10 digits"
	}
	switch phone[0] {
	case '6', '7', '8', '9':
	default:
		return crm.Lead{}, "Phone number must start with 6, 7, 8, or 9"
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRe.MatchString(email) {
		return crm.Lead{}, "Please use a valid email address"
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	if blockedEmailDomains[domain] {
		return crm.Lead{}, "Please use a valid email address"
	}

	return crm.Lead{
		Name:    name,
		Phone:   phone,
		Email:   email,
		Service: strings.TrimSpace(req.Service),
		Message: strings.TrimSpace(req.Message),
	}, ""
}
