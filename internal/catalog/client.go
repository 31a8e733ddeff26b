package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/chanmap/chanmap/internal/metrics"
)

func requestResult(status int, err error) string {
	if err != nil || status < 200 || status > 299 {
		return "error"
	}
	return "ok"
}

// ClientInterface is the surface the processing pipeline depends on.
type ClientInterface interface {
	Login(ctx context.Context) error
	Groups(ctx context.Context) ([]Group, error)
	Channels(ctx context.Context) ([]Channel, error)
	Logos(ctx context.Context) ([]Logo, error)
	BulkEditChannels(ctx context.Context, edits []ChannelEdit) error
	RefreshM3U(ctx context.Context) error
}

// Options configures a Client.
type Options struct {
	Username  string
	Password  string
	Timeout   time.Duration
	RateLimit int // requests per second, 0 = unlimited
	RateBurst int
}

// Client talks to a Dispatcharr-compatible catalog API. Authentication is
// explicit: call Login before any listing or mutation; a 401 on a later call
// surfaces as ErrNotAuthenticated so the caller can re-login deliberately
// instead of relying on implicit token-expiry checks.
type Client struct {
	base     string
	username string
	password string
	http     *http.Client
	limiter  *rate.Limiter

	mu    sync.RWMutex
	token string
}

// New creates a catalog client for the given base URL.
func New(base string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = opts.RateLimit
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return &Client{
		base:     strings.TrimRight(base, "/"),
		username: opts.Username,
		password: opts.Password,
		http:     &http.Client{Timeout: timeout},
		limiter:  limiter,
	}
}

// Login obtains a bearer token with the configured credentials.
func (c *Client) Login(ctx context.Context) error {
	if c.base == "" || c.username == "" || c.password == "" {
		return &APIError{Sentinel: ErrNotAuthenticated, Operation: "login",
			Body: "base URL, username and password must be configured"}
	}

	payload, _ := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	body, status, err := c.do(ctx, http.MethodPost, c.base+"/api/accounts/token/", payload)
	metrics.RecordCatalogRequest("login", requestResult(status, err))
	if err != nil {
		return &APIError{Sentinel: ErrUnavailable, Operation: "login", Err: err}
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &APIError{Sentinel: ErrUnauthorized, Operation: "login", Status: status}
	}
	if status != http.StatusOK {
		return &APIError{Sentinel: ErrBadResponse, Operation: "login", Status: status}
	}

	var tok struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(body, &tok); err != nil || tok.Access == "" {
		return &APIError{Sentinel: ErrBadResponse, Operation: "login",
			Body: "no access token in response", Err: err}
	}

	c.mu.Lock()
	c.token = tok.Access
	c.mu.Unlock()
	return nil
}

// Invalidate drops the cached token; the next call fails until Login.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// Groups lists all channel groups.
func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	var out []Group
	if err := c.getPaginated(ctx, "/api/channels/groups/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Channels lists all channels.
func (c *Client) Channels(ctx context.Context) ([]Channel, error) {
	var out []Channel
	if err := c.getPaginated(ctx, "/api/channels/channels/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Logos lists all logo-manager entries.
func (c *Client) Logos(ctx context.Context) ([]Logo, error) {
	var out []Logo
	if err := c.getPaginated(ctx, "/api/channels/logos/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BulkEditChannels applies a bulk PATCH to the channels endpoint.
func (c *Client) BulkEditChannels(ctx context.Context, edits []ChannelEdit) error {
	if len(edits) == 0 {
		return nil
	}
	payload, err := json.Marshal(edits)
	if err != nil {
		return fmt.Errorf("marshal bulk edit: %w", err)
	}
	return c.authorizedMutation(ctx, http.MethodPatch, "/api/channels/channels/edit/bulk/", payload)
}

// RefreshM3U triggers a global M3U refresh so the host UI picks up changes.
func (c *Client) RefreshM3U(ctx context.Context) error {
	return c.authorizedMutation(ctx, http.MethodPost, "/api/m3u/refresh/", []byte("{}"))
}

// getPaginated GETs endpoint and decodes either a raw JSON array or a
// DRF-style results envelope, following "next" links until exhausted.
func (c *Client) getPaginated(ctx context.Context, endpoint string, out any) error {
	token, err := c.currentToken(endpoint)
	if err != nil {
		return err
	}

	var pages []json.RawMessage
	url := c.base + endpoint
	for url != "" {
		body, status, err := c.doAuthorized(ctx, http.MethodGet, url, nil, token)
		metrics.RecordCatalogRequest(endpoint, requestResult(status, err))
		if err != nil {
			return &APIError{Sentinel: ErrUnavailable, Operation: endpoint, Err: err}
		}
		if status == http.StatusUnauthorized {
			return &APIError{Sentinel: ErrNotAuthenticated, Operation: endpoint, Status: status}
		}
		if status != http.StatusOK {
			return &APIError{Sentinel: ErrBadResponse, Operation: endpoint, Status: status,
				Body: truncate(body)}
		}

		trimmed := bytes.TrimSpace(body)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			pages = append(pages, trimmed)
			break
		}

		var envelope struct {
			Results json.RawMessage `json:"results"`
			Next    *string         `json:"next"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return &APIError{Sentinel: ErrBadResponse, Operation: endpoint, Err: err}
		}
		if envelope.Results != nil {
			pages = append(pages, envelope.Results)
		}
		url = ""
		if envelope.Next != nil && *envelope.Next != "" {
			url = *envelope.Next
		}
	}

	return mergePages(pages, out)
}

func (c *Client) authorizedMutation(ctx context.Context, method, endpoint string, payload []byte) error {
	token, err := c.currentToken(endpoint)
	if err != nil {
		return err
	}
	body, status, err := c.doAuthorized(ctx, method, c.base+endpoint, payload, token)
	metrics.RecordCatalogRequest(endpoint, requestResult(status, err))
	if err != nil {
		return &APIError{Sentinel: ErrUnavailable, Operation: endpoint, Err: err}
	}
	if status == http.StatusUnauthorized {
		return &APIError{Sentinel: ErrNotAuthenticated, Operation: endpoint, Status: status}
	}
	if status < 200 || status > 299 {
		return &APIError{Sentinel: ErrBadResponse, Operation: endpoint, Status: status,
			Body: truncate(body)}
	}
	return nil
}

func (c *Client) currentToken(operation string) (string, error) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token == "" {
		return "", &APIError{Sentinel: ErrNotAuthenticated, Operation: operation}
	}
	return token, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, int, error) {
	return c.doAuthorized(ctx, method, url, payload, "")
}

func (c *Client) doAuthorized(ctx context.Context, method, url string, payload []byte, token string) ([]byte, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 16<<20))
	if err != nil {
		return nil, res.StatusCode, err
	}
	return body, res.StatusCode, nil
}

// mergePages concatenates JSON array fragments and decodes them into out.
func mergePages(pages []json.RawMessage, out any) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	first := true
	for _, page := range pages {
		trimmed := bytes.TrimSpace(page)
		trimmed = bytes.TrimPrefix(trimmed, []byte("["))
		trimmed = bytes.TrimSuffix(trimmed, []byte("]"))
		if len(bytes.TrimSpace(trimmed)) == 0 {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		buf.Write(trimmed)
		first = false
	}
	buf.WriteByte(']')
	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return &APIError{Sentinel: ErrBadResponse, Operation: "merge pages", Err: err}
	}
	return nil
}

func truncate(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
