// Package client talks to the /kvs/{key} API of a kvs server, canonical or
// forwarding alike.
package client // import "github.com/nicolagi/kvs/client"

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrNotFound indicates the server answered 404 to a GET or DELETE.
	ErrNotFound = errors.New("key does not exist")
)

// Error is returned for any other reply that is not a success.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Result is the "result" field of a successful reply, e.g., "created".
type Result string

type options struct {
	address string
	timeout time.Duration
	client  *http.Client
}

type Option func(*options)

func WithAddress(value string) Option {
	return func(o *options) {
		o.address = value
	}
}

func WithTimeout(value time.Duration) Option {
	return func(o *options) {
		o.timeout = value
	}
}

func WithHTTPClient(value *http.Client) Option {
	return func(o *options) {
		o.client = value
	}
}

type Client struct {
	opts options
}

func New(opts ...Option) *Client {
	var c Client
	c.opts.address = "127.0.0.1:8090"
	c.opts.timeout = 5 * time.Second
	for _, o := range opts {
		o(&c.opts)
	}
	if c.opts.client == nil {
		c.opts.client = &http.Client{Timeout: c.opts.timeout}
	}
	return &c
}

type reply struct {
	Result Result          `json:"result"`
	Value  json.RawMessage `json:"value"`
	Error  string          `json:"error"`
}

// Put stores value, which must be valid JSON, at key. The result is either
// "created" or "replaced".
func (c *Client) Put(ctx context.Context, key string, value json.RawMessage) (Result, error) {
	body, err := json.Marshal(struct {
		Value json.RawMessage `json:"value"`
	}{value})
	if err != nil {
		return "", err
	}
	r, err := c.do(ctx, http.MethodPut, key, body)
	if err != nil {
		return "", err
	}
	return r.Result, nil
}

func (c *Client) Get(ctx context.Context, key string) (json.RawMessage, error) {
	r, err := c.do(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, err
	}
	return r.Value, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.do(ctx, http.MethodDelete, key, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, key string, body []byte) (*reply, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, c.pathFor(key), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	response, err := c.opts.client.Do(request)
	if response != nil && response.Body != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	var r reply
	decodeErr := json.Unmarshal(data, &r)
	if response.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		message := r.Error
		if decodeErr != nil || message == "" {
			message = string(data)
		}
		return nil, &Error{Status: response.StatusCode, Message: message}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding %s reply: %w", method, decodeErr)
	}
	return &r, nil
}

func (c *Client) pathFor(key string) string {
	return fmt.Sprintf("http://%s/kvs/%s", c.opts.address, url.PathEscape(key))
}
