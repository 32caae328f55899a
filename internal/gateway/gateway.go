// Package gateway is the HTTP client for the gym administration API. It
// owns the bearer token and turns authentication expiry into a sentinel
// error the caller can react to; read calls retry transient failures, write
// calls never do.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/TomiRonco/gym-pro-sub000/internal/model"
)

// ErrUnauthorized is returned when the backend rejects the token. The
// stored token is cleared so the next Login starts clean.
var ErrUnauthorized = errors.New("gateway: authentication expired")

// APIError is a non-2xx response from the backend, carrying the
// human-readable message from the error body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: %s (status %d)", e.Message, e.Status)
}

// Client talks to a running gym server. Safe for concurrent use; the
// dashboard aggregator issues overlapping refreshes on one client.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a client for the API at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Token returns the current bearer token, empty when logged out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken installs a previously obtained token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Login authenticates with staff credentials and stores the issued token.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return err
	}
	c.SetToken(resp.AccessToken)
	return nil
}

// ListMembers fetches the full member list.
func (c *Client) ListMembers(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	if err := c.doRetry(ctx, http.MethodGet, "/api/members", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// ListPayments fetches the full payment list.
func (c *Client) ListPayments(ctx context.Context) ([]model.Payment, error) {
	var payments []model.Payment
	if err := c.doRetry(ctx, http.MethodGet, "/api/payments", nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// ListPlans fetches the active membership plans, used to default the price
// and concept when initiating a payment.
func (c *Client) ListPlans(ctx context.Context) ([]model.MembershipPlan, error) {
	var plans []model.MembershipPlan
	if err := c.doRetry(ctx, http.MethodGet, "/api/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// MemberInput is the payload for creating a member.
type MemberInput struct {
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	DNI                 string     `json:"dni"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone,omitempty"`
	Address             string     `json:"address,omitempty"`
	MembershipType      string     `json:"membership_type,omitempty"`
	MembershipStartDate time.Time  `json:"membership_start_date"`
	TrainerID           *int64     `json:"trainer_id,omitempty"`
	Notes               string     `json:"notes,omitempty"`
}

// CreateMember registers a new member.
func (c *Client) CreateMember(ctx context.Context, in MemberInput) (*model.Member, error) {
	var m model.Member
	if err := c.do(ctx, http.MethodPost, "/api/members", in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMember applies a partial update. Only the fields present in the map
// change.
func (c *Client) UpdateMember(ctx context.Context, id int64, fields map[string]any) (*model.Member, error) {
	var m model.Member
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/members/%d", id), fields, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// PaymentInput is the payload for recording a payment.
type PaymentInput struct {
	MemberID       int64   `json:"member_id"`
	Amount         float64 `json:"amount"`
	PaymentMethod  string  `json:"payment_method"`
	PaymentConcept string  `json:"payment_concept"`
	Description    string  `json:"description,omitempty"`
}

// CreatePayment records a payment. Failures surface to the caller so the
// submitting view can report them instead of claiming success.
func (c *Client) CreatePayment(ctx context.Context, in PaymentInput) (*model.Payment, error) {
	var p model.Payment
	if err := c.do(ctx, http.MethodPost, "/api/payments", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CheckIn records a gym entry for the member.
func (c *Client) CheckIn(ctx context.Context, memberID int64) (*model.Attendance, error) {
	body := map[string]int64{"member_id": memberID}
	var att model.Attendance
	if err := c.do(ctx, http.MethodPost, "/api/attendance/check-in", body, &att); err != nil {
		return nil, err
	}
	return &att, nil
}

// doRetry wraps do with backoff for idempotent reads: transient network and
// 5xx failures are retried a few times, everything else returns
// immediately.
func (c *Client) doRetry(ctx context.Context, method, path string, body, out any) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.do(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return err // client errors are not transient
		}
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		return retry.RetryableError(err)
	})
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.SetToken("")
		return ErrUnauthorized
	}

	if resp.StatusCode >= 400 {
		var errBody struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
