// Package client is the REST client the terminal inbox uses to talk to the
// messaging API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/welldanyogia/seatea-inbox/internal/models"
)

// DefaultTimeout bounds every request made by a Client without its own http.Client
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of a non-JSON error body is kept
const maxErrorBody = 512

// maxResponseBody caps how much of any response is read
const maxResponseBody = 4 << 20

// ErrResponseTooLarge is returned when a response body exceeds maxResponseBody
var ErrResponseTooLarge = errors.New("response body too large")

// APIError is a non-2xx response from the API
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Config configures a Client
type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Client calls the inbox endpoints on behalf of one user
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
}

// envelope mirrors the server's {success, data} / {success:false, error, code} body
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

// New creates a Client for cfg.BaseURL
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL scheme %q", base.Scheme)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{baseURL: base, token: cfg.Token, http: httpClient}, nil
}

// ListConversations returns the caller's conversations in server order
func (c *Client) ListConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	var out []models.ConversationSummary
	if err := c.do(ctx, http.MethodGet, "/api/messages/conversations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnreadCount returns the caller's aggregate unread count
func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out models.UnreadCount
	if err := c.do(ctx, http.MethodGet, "/api/messages/unread-count", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

// ListMessages returns one page of the conversation with partnerID, newest first
func (c *Client) ListMessages(ctx context.Context, partnerID uint, page, size int) (*models.MessagePage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	var out models.MessagePage
	path := "/api/messages/conversations/" + strconv.FormatUint(uint64(partnerID), 10)
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage sends text to receiverID and returns the stored message
func (c *Client) SendMessage(ctx context.Context, receiverID uint, text string) (*models.MessageView, error) {
	req := models.SendMessageRequest{ReceiverID: receiverID, Message: text}

	var out models.MessageView
	if err := c.do(ctx, http.MethodPost, "/api/messages", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead marks every message from partnerID to the caller as read
func (c *Client) MarkRead(ctx context.Context, partnerID uint) error {
	path := "/api/messages/conversations/" + strconv.FormatUint(uint64(partnerID), 10) + "/read"
	return c.do(ctx, http.MethodPut, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(raw) > maxResponseBody {
		return fmt.Errorf("%s %s: %w", method, path, ErrResponseTooLarge)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Error}
		if decodeErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(truncate(string(raw), maxErrorBody))
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Success {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Error}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
