// Package crm forwards validated leads to the third-party CRM endpoint.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client defines the CRM operations used by the lead endpoint.
type Client interface {
	Submit(ctx context.Context, lead Lead) error
}

// Lead is a validated lead ready for forwarding.
type Lead struct {
	Name    string
	Email   string
	Phone   string
	Service string
	Message string
}

// payload is the wire shape the CRM expects. Category and Resume are always
// null for chat-widget leads but the endpoint requires the fields.
type payload struct {
	EType    string  `json:"etype"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Mobile   string  `json:"mobile"`
	Message  string  `json:"message"`
	Category *string `json:"category"`
	Resume   *string `json:"resume"`
}

// ClientOption configures the CRM client.
type ClientOption func(*httpClient)

// WithTimeout sets the HTTP timeout for CRM calls.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *httpClient) {
		c.http = h
	}
}

type httpClient struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a CRM client for the given endpoint.
func NewClient(endpoint string, opts ...ClientOption) Client {
	c := &httpClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit forwards one lead. Status 200 and 201 both count as accepted.
func (c *httpClient) Submit(ctx context.Context, lead Lead) error {
	message := "Service: " + lead.Service
	if lead.Message != "" {
		message += "\n\nQuery: " + lead.Message
	}
	body, err := json.Marshal(payload{
		EType:   "ContactUs",
		Name:    lead.Name,
		Email:   lead.Email,
		Mobile:  lead.Phone,
		Message: message,
	})
	if err != nil {
		return eris.Wrap(err, "crm: marshal lead")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "crm: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "crm: submit lead")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		zap.L().Warn("crm: lead rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return eris.Errorf("crm: submit lead status %d", resp.StatusCode)
	}

	zap.L().Info("crm: lead forwarded", zap.String("service", lead.Service))
	return nil
}
