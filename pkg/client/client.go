// Package client is a small Go SDK for the admin API, used by adminctl and
// by integrations that need to watch the review queue or appointments.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"estatehub/pkg/pagination"
	"estatehub/pkg/response"

	"go.uber.org/ratelimit"
)

// APIError is a non-success envelope returned by the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
}

type Listing struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	City            string  `json:"city"`
	Price           string  `json:"price"`
	Currency        string  `json:"currency"`
	Status          string  `json:"status"`
	ReviewStatus    string  `json:"reviewStatus"`
	RejectionReason string  `json:"rejectionReason"`
	ReviewedAt      *string `json:"reviewedAt"`
	CreatedAt       string  `json:"createdAt"`
}

type ReviewStats struct {
	Pending   int64 `json:"pending"`
	Approved  int64 `json:"approved"`
	Rejected  int64 `json:"rejected"`
	NeedsEdit int64 `json:"needsEdit"`
}

type ReviewPage struct {
	Properties []Listing       `json:"properties"`
	Pagination pagination.Meta `json:"pagination"`
	Stats      ReviewStats     `json:"stats"`
}

type Appointment struct {
	ID            string `json:"id"`
	PropertyTitle string `json:"propertyTitle"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	PreferredAt   string `json:"preferredAt"`
	Status        string `json:"status"`
	CreatedAt     string `json:"createdAt"`
}

type AppointmentPage struct {
	Appointments []Appointment   `json:"appointments"`
	Pagination   pagination.Meta `json:"pagination"`
}

type Activity struct {
	ID         string `json:"id"`
	AdminName  string `json:"adminName"`
	Action     string `json:"action"`
	Module     string `json:"module"`
	EntityName string `json:"entityName"`
	CreatedAt  string `json:"createdAt"`
}

type ActivityFeed struct {
	Activities []Activity `json:"activities"`
	Total      int64      `json:"total"`
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRate caps outgoing requests per second.
func WithRate(perSecond int) Option {
	return func(c *Client) { c.limiter = ratelimit.New(perSecond) }
}

// WithLanguage sets Accept-Language so server messages come back localized.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.lang = lang }
}

type Client struct {
	baseURL string
	token   string
	lang    string
	http    *http.Client
	limiter ratelimit.Limiter
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: ratelimit.New(10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token is the bearer token currently in use.
func (c *Client) Token() string { return c.token }

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}

	c.limiter.Take()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		response.Response
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s %s (HTTP %d): %w", method, path, resp.StatusCode, err)
	}
	if envelope.Status != response.StatusSuccess {
		msg := envelope.Message
		if msg == "" {
			msg = envelope.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Code: envelope.Code, Message: msg}
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// Login signs in an admin and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var res struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return err
	}
	c.token = res.Token
	return nil
}

func (c *Client) ListForReview(ctx context.Context, reviewStatus string, page, limit int) (*ReviewPage, error) {
	q := url.Values{}
	q.Set("reviewStatus", reviewStatus)
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out ReviewPage
	if err := c.do(ctx, http.MethodGet, "/api/properties/review?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitDecision sends approve, reject, needs_edit or revert_to_pending.
func (c *Client) SubmitDecision(ctx context.Context, propertyID, action, reason string) (*Listing, error) {
	body := map[string]string{"propertyId": propertyID, "action": action}
	if reason != "" {
		body["rejectionReason"] = reason
	}
	var out Listing
	if err := c.do(ctx, http.MethodPut, "/api/properties/review", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAppointments(ctx context.Context, status string, page, limit int) (*AppointmentPage, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out AppointmentPage
	if err := c.do(ctx, http.MethodGet, "/api/appointments?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RecentActivity(ctx context.Context, limit int) (*ActivityFeed, error) {
	var out ActivityFeed
	if err := c.do(ctx, http.MethodGet, "/api/admins/activities?limit="+strconv.Itoa(limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AppointmentCount is a FetchFunc over the total number of appointments.
func (c *Client) AppointmentCount(ctx context.Context) (int, error) {
	page, err := c.ListAppointments(ctx, "", 1, 1)
	if err != nil {
		return 0, err
	}
	return int(page.Pagination.Total), nil
}

// ActivityCount is a FetchFunc over the total number of activity entries.
func (c *Client) ActivityCount(ctx context.Context) (int, error) {
	feed, err := c.RecentActivity(ctx, 1)
	if err != nil {
		return 0, err
	}
	return int(feed.Total), nil
}
