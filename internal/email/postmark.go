// Package email sends transactional mail through Postmark: payment receipts
// and membership expiry notices.
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

type Client struct {
	mu          sync.RWMutex
	serverToken string
	fromEmail   string
	gymName     string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(serverToken, fromEmail, gymName string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		gymName:     gymName,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverToken != ""
}

// UpdateConfig hot-reloads the Postmark credentials from settings.
func (c *Client) UpdateConfig(serverToken, fromEmail, gymName string) {
	c.mu.Lock()
	c.serverToken = serverToken
	c.fromEmail = fromEmail
	c.gymName = gymName
	c.mu.Unlock()
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendExpiryNotice tells a member their membership is about to lapse.
func (c *Client) SendExpiryNotice(toEmail, memberName string, endDate time.Time, daysLeft int) error {
	when := fmt.Sprintf("en %d días", daysLeft)
	if daysLeft <= 1 {
		when = "mañana"
	}
	subject := "Tu membresía está por vencer"
	textBody := fmt.Sprintf(
		"Hola %s:\n\nTu membresía vence %s (%s). Acercate a recepción o pagá online para renovarla.\n\n%s",
		memberName, when, endDate.Format("02/01/2006"), c.signature(),
	)
	htmlBody := fmt.Sprintf(
		`<p>Hola %s:</p><p>Tu membresía vence %s (<strong>%s</strong>). Acercate a recepción o pagá online para renovarla.</p><p>%s</p>`,
		memberName, when, endDate.Format("02/01/2006"), c.signature(),
	)
	return c.send(toEmail, subject, htmlBody, textBody)
}

// SendPaymentReceipt confirms a recorded payment with its invoice number.
func (c *Client) SendPaymentReceipt(toEmail, memberName string, amount float64, invoiceNumber string) error {
	subject := fmt.Sprintf("Recibo de pago %s", invoiceNumber)
	textBody := fmt.Sprintf(
		"Hola %s:\n\nRecibimos tu pago de $%.2f.\nComprobante: %s\n\n%s",
		memberName, amount, invoiceNumber, c.signature(),
	)
	htmlBody := fmt.Sprintf(
		`<p>Hola %s:</p><p>Recibimos tu pago de <strong>$%.2f</strong>.</p><p>Comprobante: %s</p><p>%s</p>`,
		memberName, amount, invoiceNumber, c.signature(),
	)
	return c.send(toEmail, subject, htmlBody, textBody)
}

func (c *Client) signature() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.gymName == "" {
		return "Gym Pro"
	}
	return c.gymName
}

func (c *Client) send(toEmail, subject, htmlBody, textBody string) error {
	c.mu.RLock()
	token := c.serverToken
	from := c.fromEmail
	httpClient := c.httpClient
	c.mu.RUnlock()

	if token == "" {
		return fmt.Errorf("email client not configured: missing server token")
	}

	payload := postmarkEmail{
		From:     from,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", "https://api.postmarkapp.com/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
