package server

import "net/http"

// The UI endpoints are pure data: the widget pulls its copy, labels, and
// client-side knobs from here so the frontend never hardcodes them.

type welcomeResponse struct {
	Message    string `json:"message"`
	ShowTyping bool   `json:"show_typing"`
	Delay      int    `json:"delay"`
}

func (s *Server) handleWelcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, welcomeResponse{
		Message: "Hello 👋 I'm Ruby.\nWelcome to Ritz Media World.\n\n" +
			"If you're exploring our services, campaigns, or capabilities,\nI'm here to help you 😊",
		ShowTyping: true,
		Delay:      800,
	})
}

type enquireButtonResponse struct {
	Label           string `json:"label"`
	Text            string `json:"text"`
	ShowAfterIntent bool   `json:"show_after_intent"`
}

func (s *Server) handleEnquireButton(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, enquireButtonResponse{
		Label:           "Enquire",
		Text:            "Enquire",
		ShowAfterIntent: true,
	})
}

type followUpMessagesResponse struct {
	SubService     string `json:"sub_service"`
	ServicesList   string `json:"services_list"`
	PricingContact string `json:"pricing_contact"`
	GeneralError   string `json:"general_error"`
}

func (s *Server) handleFollowUpMessages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, followUpMessagesResponse{
		SubService:     "Want to discuss your specific needs? I can connect you with our team 👇",
		ServicesList:   "Which service interests you the most? Just type the name (like 'Digital Marketing' or 'Creative Services') and I'll share the details! 😊",
		PricingContact: "Our pricing is fully customized based on your goals and industry. Let me connect you with our team for a detailed proposal 👇",
		GeneralError: "⏳ Taking longer than usual. Try asking about a specific service like 'Digital Marketing' for an instant answer, or contact us directly:\n📞 " +
			s.cfg.Contact.Phone,
	})
}

type contactInfoResponse struct {
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	PhoneFormatted string `json:"phone_formatted"`
}

func (s *Server) handleContactInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, contactInfoResponse{
		Phone:          s.cfg.Contact.Phone,
		Email:          s.cfg.Contact.Email,
		PhoneFormatted: "📞 " + s.cfg.Contact.Phone,
	})
}

type chatConfigResponse struct {
	TimeoutMs            int  `json:"timeout_ms"`
	TypingIndicatorDelay int  `json:"typing_indicator_delay"`
	EnableCaching        bool `json:"enable_caching"`
	MaxHistory           int  `json:"max_history"`
}

func (s *Server) handleChatConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, chatConfigResponse{
		TimeoutMs:            s.cfg.Chat.RequestTimeoutSecs * 1000,
		TypingIndicatorDelay: 500,
		EnableCaching:        true,
		MaxHistory:           6,
	})
}
