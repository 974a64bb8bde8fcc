package payflow

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

	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout        = 15 * time.Second
	responseBodyReadLimit = 1 << 20
	errorBodyReadLimit    = 4096
)

var errBaseURLRequired = errors.New("payflow backend base url is required")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
	Path    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payflow %s: status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("payflow %s: status %d: %s", e.Path, e.Status, e.Message)
}

// StatusCode implements pkg/errors.StatusCoder.
func (e *APIError) StatusCode() int { return e.Status }

// Client talks to the remote PayFlow order/payment backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	reads      singleflight.Group
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

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithToken sends the bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// NewClient builds the backend client for baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// GetService fetches GET /servicios/:id.
func (c *Client) GetService(ctx context.Context, id string) (*Service, error) {
	var out Service
	if err := c.getJSON(ctx, "/servicios/"+url.PathEscape(id), "service", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProduct fetches GET /productos/:id.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var out Product
	if err := c.getJSON(ctx, "/productos/"+url.PathEscape(id), "product", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTicketTiers fetches GET /servicios/:id/tipos-entrada.
func (c *Client) ListTicketTiers(ctx context.Context, serviceID string) ([]TicketTier, error) {
	var out []TicketTier
	if err := c.getJSON(ctx, "/servicios/"+url.PathEscape(serviceID)+"/tipos-entrada", "ticket tiers", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAccount fetches GET /pagos/cuentas/:id.
func (c *Client) GetAccount(ctx context.Context, id string) (*Account, error) {
	var out Account
	if err := c.getJSON(ctx, "/pagos/cuentas/"+url.PathEscape(id), "account", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAccounts fetches GET /pagos/cuentas.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := c.getJSON(ctx, "/pagos/cuentas", "accounts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateOrder posts the assembled order to POST /pagos/ordenes. It never retries.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal order request")
	}

	const path = "/pagos/ordenes"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build order request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	setBearer(httpReq, c.credential(ctx))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute order request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := readAPIError(resp, path)
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentRejected, apiErr, "order rejected by backend")
	}

	var out OrderResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order response")
	}
	return &out, nil
}

// getJSON collapses concurrent identical reads made with the same credential
// into one request. The shared request is detached from any single caller, so
// a caller that gives up only stops waiting for it.
func (c *Client) getJSON(ctx context.Context, path, resource string, dest any) error {
	token := c.credential(ctx)
	shared := context.WithoutCancel(ctx)
	ch := c.reads.DoChan(token+" "+path, func() (any, error) {
		reqCtx, cancel := context.WithTimeout(shared, c.readTimeout())
		defer cancel()
		return c.get(reqCtx, path, resource, token)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), resource+" request cancelled")
	case res = <-ch:
	}
	if res.Err != nil {
		return res.Err
	}
	if err := json.Unmarshal(res.Val.([]byte), dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+resource+" response")
	}
	return nil
}

func (c *Client) get(ctx context.Context, path, resource, token string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+resource+" request")
	}
	httpReq.Header.Set("Accept", "application/json")
	setBearer(httpReq, token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+resource+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, readAPIError(resp, path), resource+" not found")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, readAPIError(resp, path), resource+" request failed")
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+resource+" response")
	}
	return raw, nil
}

// credential picks the buyer token forwarded on ctx and falls back to the
// service token. Account reads and order creation are scoped to the buyer
// by the backend only when the buyer token is sent.
func (c *Client) credential(ctx context.Context) string {
	if token := BuyerToken(ctx); token != "" {
		return token
	}
	return c.token
}

func (c *Client) readTimeout() time.Duration {
	if c.httpClient.Timeout > 0 {
		return c.httpClient.Timeout
	}
	return defaultTimeout
}

func setBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func readAPIError(resp *http.Response, path string) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	return &APIError{
		Status:  resp.StatusCode,
		Message: backendMessage(raw),
		Path:    path,
	}
}

// backendMessage extracts the human readable reason from an error body.
func backendMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Mensaje string `json:"mensaje"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, candidate := range []string{body.Message, body.Mensaje} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	switch v := body.Error.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return strings.TrimSpace(msg)
		}
	}
	return ""
}
