package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gojektech/heimdall/v6"
	"github.com/gojektech/heimdall/v6/httpclient"

	"momento/internal/logger"
)

// Client calls the Momento backend. Every endpoint is a JSON POST under
// {baseURL}/api/{Concept}/{action}. Only queries (actions starting with
// "_") are retried; mutations are sent once.
type Client struct {
	baseURL string
	http    *httpclient.Client
	once    *httpclient.Client
	session string
}

type options struct {
	timeout time.Duration
	retries int
	backoff time.Duration
	doer    heimdall.Doer
}

// Option customises New.
type Option func(*options)

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRetries retries transport errors and 5xx responses of queries with a
// constant backoff. The backoff sleep does not observe ctx cancellation.
func WithRetries(n int, backoff time.Duration) Option {
	return func(o *options) {
		o.retries = n
		o.backoff = backoff
	}
}

// WithDoer swaps the underlying HTTP client.
func WithDoer(d heimdall.Doer) Option {
	return func(o *options) { o.doer = d }
}

func New(baseURL string, opts ...Option) *Client {
	o := options{
		timeout: 10 * time.Second,
		backoff: 300 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&o)
	}

	backoff := heimdall.NewConstantBackoff(o.backoff, 5*time.Millisecond)
	build := func(retrier heimdall.Retriable, retries int) *httpclient.Client {
		clientOpts := []httpclient.Option{
			httpclient.WithHTTPTimeout(o.timeout),
			httpclient.WithRetrier(retrier),
			httpclient.WithRetryCount(retries),
		}
		if o.doer != nil {
			clientOpts = append(clientOpts, httpclient.WithHTTPClient(o.doer))
		}
		return httpclient.NewClient(clientOpts...)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    build(heimdall.NewRetrier(backoff), o.retries),
		once:    build(heimdall.NewNoRetrier(), 0),
	}
}

func isQuery(action string) bool {
	return strings.HasPrefix(action, "_")
}

// WithSession returns a copy of the client that sends token as a bearer
// credential. An empty token yields an anonymous client.
func (c *Client) WithSession(token string) *Client {
	clone := *c
	clone.session = token
	return &clone
}

func (c *Client) Session() string { return c.session }

func (c *Client) endpoint(concept, action string) string {
	return fmt.Sprintf("%s/api/%s/%s", c.baseURL, concept, action)
}

// call posts payload as JSON and decodes the response into out (if non-nil).
func (c *Client) call(ctx context.Context, concept, action string, payload, out interface{}) error {
	if payload == nil {
		payload = struct{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", action, err)
	}
	return c.post(ctx, concept, action, "application/json", bytes.NewReader(body), out)
}

func (c *Client) post(ctx context.Context, concept, action, contentType string, body io.Reader, out interface{}) error {
	op := concept + "." + action
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(concept, action), body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.session != "" {
		req.Header.Set("Authorization", "Bearer "+c.session)
	}

	doer := c.once
	if isQuery(action) {
		doer = c.http
	}
	resp, err := doer.Do(req)
	if err != nil {
		logger.Debugf("api %s: transport error: %v", op, err)
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	if resp == nil {
		return &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("empty response")}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := httpError(op, resp.StatusCode, raw)
		logger.Debugf("api %s: status %d: %s", op, resp.StatusCode, apiErr.Message)
		return apiErr
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if !json.Valid(raw) {
		return &Error{Kind: KindMalformed, Op: op, Status: resp.StatusCode}
	}
	if msg := applicationError(raw); msg != "" {
		return &Error{Kind: KindApplication, Op: op, Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindMalformed, Op: op, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// decodeFirst unmarshals either an object or the first element of an array.
func decodeFirst(raw json.RawMessage, out interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(raw, &rows); err != nil {
			return &Error{Kind: KindMalformed, Err: err}
		}
		if len(rows) == 0 {
			return ErrNotFound
		}
		raw = rows[0]
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindMalformed, Err: err}
	}
	return nil
}
