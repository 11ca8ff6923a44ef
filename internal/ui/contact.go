package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	msgContactSent    = "Message sent successfully! I'll get back to you soon."
	msgContactFailed  = "Failed to send message. Please try again."
	msgContactNetwork = "Network error. Please try again later."
)

type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type ContactAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ContactClient delivers a submission. An error means the acknowledgement
// never arrived; a delivered rejection is an ack with Success false.
type ContactClient interface {
	Submit(ctx context.Context, sub ContactSubmission) (ContactAck, error)
}

// HTTPContactClient posts submissions as JSON to the page server.
type HTTPContactClient struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPContactClient(endpoint string) *HTTPContactClient {
	return &HTTPContactClient{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *HTTPContactClient) Submit(ctx context.Context, sub ContactSubmission) (ContactAck, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return ContactAck{}, fmt.Errorf("encode submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return ContactAck{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return ContactAck{}, fmt.Errorf("post %s: %w", h.Endpoint, err)
	}
	defer resp.Body.Close()

	// The body decides the outcome, whatever the status code.
	var ack ContactAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return ContactAck{}, fmt.Errorf("decode ack (status %d): %w", resp.StatusCode, err)
	}
	return ack, nil
}

func fieldValue(form Element, name string) string {
	if el := form.Query(`[name="` + name + `"]`); el != nil {
		return el.Value()
	}
	return ""
}

func (c *Controller) bindContactForm() {
	client := c.deps.Contact
	if client == nil {
		return
	}
	form := c.deps.Document.ByID("contactForm")
	if form == nil {
		return
	}

	c.on(form, "submit", func(e Event) {
		e.PreventDefault()
		sub := ContactSubmission{
			Name:    fieldValue(form, "name"),
			Email:   fieldValue(form, "email"),
			Message: fieldValue(form, "message"),
		}
		c.async(func(ctx context.Context) func() {
			ack, err := client.Submit(ctx, sub)
			return func() { c.contactOutcome(form, ack, err) }
		})
	})
	c.enable(FeatureContactForm)
}

func (c *Controller) contactOutcome(form Element, ack ContactAck, err error) {
	switch {
	case err != nil:
		c.log.Warn("contact submission failed", zap.Error(err))
		c.Notify(msgContactNetwork, NotifyError)
	case ack.Success:
		c.Notify(msgContactSent, NotifySuccess)
		form.Reset()
	default:
		c.log.Info("contact submission rejected", zap.String("message", ack.Message))
		c.Notify(msgContactFailed, NotifyError)
	}
}
