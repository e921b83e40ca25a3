package model

// LeadRequest is the lead submission payload from the chat widget.
type LeadRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Service string `json:"service"`
	Message string `json:"message,omitempty"`
}

// LeadResponse reports the outcome of a lead submission.
type LeadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
