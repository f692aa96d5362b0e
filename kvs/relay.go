package kvs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultForwardTimeout bounds a forwarded request, from the wait for a
// rate limiter token to the last byte of the peer's response.
const DefaultForwardTimeout = 3 * time.Second

// Relay is the Handler of a forwarding instance. It re-issues each request
// against the forward target and relays status, content type and body as
// received. It never retries and never falls back to local storage.
type Relay struct {
	target  string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter

	forwarded atomic.Uint64
	failed    atomic.Uint64
}

var _ Handler = (*Relay)(nil)

type RelayOption func(*Relay)

// WithForwardTimeout overrides DefaultForwardTimeout.
func WithForwardTimeout(value time.Duration) RelayOption {
	return func(r *Relay) {
		if value > 0 {
			r.timeout = value
		}
	}
}

// WithRateLimit caps forwarded requests to perSecond, with bursts of up to
// burst requests. A non-positive perSecond disables the limiter.
func WithRateLimit(perSecond float64, burst int) RelayOption {
	return func(r *Relay) {
		if perSecond <= 0 {
			r.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHTTPClient replaces the client used to reach the peer. Its own
// timeout, if any, applies on top of the forward timeout.
func WithHTTPClient(value *http.Client) RelayOption {
	return func(r *Relay) {
		if value != nil {
			r.client = value
		}
	}
}

// NewRelay returns a Relay forwarding to target, a host:port address.
func NewRelay(target string, opts ...RelayOption) *Relay {
	r := &Relay{
		target:  target,
		timeout: DefaultForwardTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	if r.client == nil {
		r.client = &http.Client{
			Timeout: r.timeout,
			// Redirects are the peer's answer, relay them as they are.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return r
}

// Target returns the address requests are forwarded to.
func (r *Relay) Target() string {
	return r.target
}

func (r *Relay) Put(ctx context.Context, key string, body []byte) Reply {
	return r.forward(ctx, http.MethodPut, key, body)
}

func (r *Relay) Get(ctx context.Context, key string) Reply {
	return r.forward(ctx, http.MethodGet, key, nil)
}

func (r *Relay) Delete(ctx context.Context, key string) Reply {
	return r.forward(ctx, http.MethodDelete, key, nil)
}

func (r *Relay) forward(ctx context.Context, method, key string, body []byte) Reply {
	logger := log.WithFields(log.Fields{
		"op":     method,
		"key":    key,
		"target": r.target,
	})
	reply, err := r.do(ctx, method, key, body)
	if err != nil {
		r.failed.Add(1)
		logger.WithField("err", err).Warn("Could not forward")
		return errorReply(err)
	}
	r.forwarded.Add(1)
	logger.WithField("status", reply.Status).Debug("Forwarded")
	return reply
}

func (r *Relay) do(ctx context.Context, method, key string, body []byte) (Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return Reply{}, fmt.Errorf("rate limited: %v: %w", err, ErrUpstreamUnreachable)
		}
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, r.urlFor(key), reader)
	if err != nil {
		return Reply{}, fmt.Errorf("%v: %w", err, ErrUpstreamUnreachable)
	}
	if body != nil {
		request.Header.Set("Content-Type", contentTypeJSON)
	}
	response, err := r.client.Do(request)
	if response != nil && response.Body != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}
	if err != nil {
		return Reply{}, fmt.Errorf("%v: %w", err, ErrUpstreamUnreachable)
	}
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("reading response: %v: %w", err, ErrUpstreamUnreachable)
	}
	return Reply{
		Status:      response.StatusCode,
		ContentType: response.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

func (r *Relay) urlFor(key string) string {
	return fmt.Sprintf("http://%s/kvs/%s", r.target, url.PathEscape(key))
}

// RelayCounts is a point-in-time copy of the counters of a Relay.
type RelayCounts struct {
	Forwarded uint64
	Failed    uint64
}

// Counts reports how many requests got an answer from the peer, and how
// many were answered with 503 instead.
func (r *Relay) Counts() RelayCounts {
	return RelayCounts{
		Forwarded: r.forwarded.Load(),
		Failed:    r.failed.Load(),
	}
}
