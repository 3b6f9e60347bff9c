package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
)

const (
	defaultCookieName     = "cart"
	defaultTimeout        = 5 * time.Second
	responseBodyReadLimit = 4096
)

const addPath = "/cart/add.js"

// storefront 422 wording for quantity limits, lower-cased
var inventoryPhrases = []string{
	"sold out",
	"out of stock",
	"inventory",
	"in stock",
	"can't add more",
	"can’t add more",
	"cannot add more",
	"are in your cart",
	"is in your cart",
}

// Client calls the storefront cart endpoints over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cookieName string
	timeout    time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCookieName overrides the cookie carrying the session identity.
func WithCookieName(name string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			c.cookieName = trimmed
		}
	}
}

// WithTimeout bounds every store call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient builds a store client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("cart store base url is required")
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid cart store base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		cookieName: defaultCookieName,
		timeout:    defaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// GetCart fetches the session's cart.
func (c *Client) GetCart(ctx context.Context, session string) (*Cart, error) {
	var out Cart
	if err := c.do(ctx, session, http.MethodGet, "/cart.js", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddLineItem appends a line to the session's cart.
func (c *Client) AddLineItem(ctx context.Context, session string, input AddLineItemInput) error {
	payload := struct {
		Items []AddLineItemInput `json:"items"`
	}{Items: []AddLineItemInput{input}}
	return c.do(ctx, session, http.MethodPost, addPath, payload, nil)
}

// ChangeLineItem sets the quantity of an existing line.
func (c *Client) ChangeLineItem(ctx context.Context, session string, input ChangeLineItemInput) error {
	if strings.TrimSpace(input.Key) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "line item key is required")
	}
	return c.do(ctx, session, http.MethodPost, "/cart/change.js", input, nil)
}

// RenderSection returns the markup of one storefront section.
func (c *Client) RenderSection(ctx context.Context, session, sectionID string) (string, error) {
	if strings.TrimSpace(sectionID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "section id is required")
	}
	var sections map[string]*string
	path := "/?sections=" + url.QueryEscape(sectionID)
	if err := c.do(ctx, session, http.MethodGet, path, nil, &sections); err != nil {
		return "", err
	}
	markup := sections[sectionID]
	if markup == nil {
		return "", nil
	}
	return *markup, nil
}

func (c *Client) do(ctx context.Context, session, method, path string, body, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeStoreUnavailable, "cart store client not configured")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal cart request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "build cart request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: session})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "execute cart request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return statusError(method, path, resp.StatusCode, msg)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "decode cart response")
	}
	return nil
}

func statusError(method, path string, status int, body []byte) error {
	var parsed struct {
		Message     string `json:"message"`
		Description string `json:"description"`
	}
	_ = json.Unmarshal(body, &parsed)
	reason := strings.TrimSpace(parsed.Description)
	if reason == "" {
		reason = strings.TrimSpace(parsed.Message)
	}
	if reason == "" {
		reason = strings.TrimSpace(string(body))
	}

	cause := fmt.Errorf("%s %s: status %d: %s", method, path, status, reason)
	// add.js only answers 422 when the variant cannot take the quantity
	if status == http.StatusUnprocessableEntity && (path == addPath || mentionsInventory(reason)) {
		return pkgerrors.Wrap(pkgerrors.CodeInventoryRejected, cause, "store rejected line item").
			WithDetails(map[string]any{"reason": reason})
	}
	return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, cause, "cart request failed")
}

func mentionsInventory(reason string) bool {
	lower := strings.ToLower(reason)
	for _, phrase := range inventoryPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
