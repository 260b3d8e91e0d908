// Package api is the request executor for the appeals API: one HTTP call per Do with its own
// timeout, default headers, response decoding, failure classification and detection of the
// server signal that means the bearer credential is no longer valid.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-appeals-client/internal/config"
	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	headerAccept      = "Accept"
	headerContentType = "Content-Type"
	headerRequestID   = "X-Request-ID"

	contentTypeJSON = "application/json"
)

// InvalidCredentialHandler is notified when a request proves the session is over:
// either no credential is stored or the server rejected the one that was sent.
// Every service client shares one handler, the session coordinator.
type InvalidCredentialHandler interface {
	HandleInvalidCredential(ctx context.Context)
}

type noopHandler struct{}

func (noopHandler) HandleInvalidCredential(context.Context) {
	log.Warn().Msg("credential invalid but no handler registered")
}

// Request describes one call. At most one of JSON and Multipart is used.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header

	// JSON is encoded as the request body when non-nil
	JSON any

	// Multipart sends a multipart/form-data body; the content type (with boundary)
	// always comes from the encoder, never from defaults or Header.
	Multipart *MultipartBody

	// Token is attached as the Authorization header when set
	Token *oauth2.Token
}

// Result is a successful (2xx) response.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsJSON reports whether the server declared a JSON content type.
func (r *Result) IsJSON() bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get(headerContentType))
	if err != nil {
		return strings.Contains(r.Header.Get(headerContentType), contentTypeJSON)
	}
	return mediaType == contentTypeJSON || strings.HasSuffix(mediaType, "+json")
}

// Text returns the raw body.
func (r *Result) Text() string {
	return string(r.Body)
}

// Decode unmarshals a JSON body into v. A non-JSON body can only be decoded into *string.
func (r *Result) Decode(v any) error {
	if v == nil {
		return nil
	}
	if !r.IsJSON() {
		if s, ok := v.(*string); ok {
			*s = r.Text()
			return nil
		}
		return fmt.Errorf("%w: %q", apperrors.ErrUnexpectedContent, r.Header.Get(headerContentType))
	}
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("[Result.Decode] %w", err)
	}
	return nil
}

// DecodeJSON decodes a result into a new T.
func DecodeJSON[T any](r *Result) (*T, error) {
	var v T
	if err := r.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Client executes requests against the API base URL.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	timeout      time.Duration
	probe        bool
	probeTimeout time.Duration
	limiter      *rate.Limiter
	metrics      *Metrics
	handler      InvalidCredentialHandler
	nowFunc      func() time.Time
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying transport client. Per-call timeouts come from WithTimeout.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithProbe enables or disables the reachability probe sent before each request.
func WithProbe(enabled bool, timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.probe = enabled
		if timeout > 0 {
			c.probeTimeout = timeout
		}
	}
}

func WithRateLimiter(l *rate.Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithInvalidCredentialHandler registers the shared handler invoked on credential invalidity.
func WithInvalidCredentialHandler(h InvalidCredentialHandler) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.handler = h
		}
	}
}

func WithNowFunc(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = now
	}
}

// New creates a client for baseURL. The probe is on by default.
func New(baseURL string, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[api.New] base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("[api.New] invalid base URL: %w", err)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{},
		timeout:      config.DefaultRequestTimeout,
		probe:        true,
		probeTimeout: config.DefaultProbeTimeout,
		handler:      noopHandler{},
		nowFunc:      time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// NewFromConfig builds a client from the environment configuration.
func NewFromConfig(cfg config.ClientConfig, options ...ClientOption) (*Client, error) {
	opts := []ClientOption{
		WithTimeout(cfg.GetRequestTimeout()),
		WithProbe(cfg.GetProbeEnabled(), cfg.GetProbeTimeout()),
	}
	if rps := cfg.GetRateLimit(); rps > 0 {
		opts = append(opts, WithRateLimiter(rate.NewLimiter(rate.Limit(rps), 1)))
	}
	return New(cfg.GetBaseURL(), append(opts, options...)...)
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Metrics returns the collectors passed with WithMetrics, or nil.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// Handler returns the registered invalid-credential handler.
func (c *Client) Handler() InvalidCredentialHandler {
	return c.handler
}

// Do performs the request. Non-2xx responses return *HTTPError. On 401 the body is checked
// for credential markers and the handler runs before Do returns.
func (c *Client) Do(ctx context.Context, r *Request) (*Result, error) {
	start := c.nowFunc()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.fail(r.Method, start, fmt.Errorf("[api.Do] rate limiter: %w", err))
		}
	}

	if c.probe {
		if err := c.Probe(ctx); err != nil {
			return nil, c.fail(r.Method, start, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newHTTPRequest(callCtx, r)
	if err != nil {
		return nil, err
	}

	logger := log.With().
		Str("method", req.Method).
		Str("path", r.Path).
		Str("requestID", req.Header.Get(headerRequestID)).
		Logger()
	logger.Debug().Msg("api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(r.Method, start, transportError(callCtx, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(r.Method, start, transportError(callCtx, err))
	}

	logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", c.nowFunc().Sub(start)).Msg("api response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := newHTTPError(resp.StatusCode, body)
		if httpErr.Unauthorized() && CredentialInvalid(body) {
			httpErr.CredentialInvalid = true
			logger.Info().Msg("credential rejected by server, ending session")
			c.metrics.markCredentialInvalid()
			// the handler must finish even if the caller has given up
			c.handler.HandleInvalidCredential(context.WithoutCancel(ctx))
		} else {
			logger.Warn().Int("status", resp.StatusCode).Msg("api error response")
		}
		c.metrics.observe(r.Method, outcomeForStatus(resp.StatusCode), c.nowFunc().Sub(start))
		return nil, httpErr
	}

	c.metrics.observe(r.Method, outcomeSuccess, c.nowFunc().Sub(start))
	return &Result{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) fail(method string, start time.Time, err error) error {
	c.metrics.observe(method, outcomeForError(err), c.nowFunc().Sub(start))
	return err
}

func (c *Client) newHTTPRequest(ctx context.Context, r *Request) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.Multipart != nil:
		buf, ct, err := r.Multipart.encode()
		if err != nil {
			return nil, fmt.Errorf("[api.Do] encode multipart: %w", err)
		}
		body, contentType = bytes.NewReader(buf), ct
	case r.JSON != nil:
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, fmt.Errorf("[api.Do] encode json: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("[api.Do] new request: %w", err)
	}

	req.Header.Set(headerAccept, contentTypeJSON)
	if r.Multipart == nil {
		req.Header.Set(headerContentType, contentTypeJSON)
	}
	for k, values := range r.Header {
		req.Header.Del(k)
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if r.Multipart != nil {
		req.Header.Set(headerContentType, contentType)
	}
	if req.Header.Get(headerRequestID) == "" {
		req.Header.Set(headerRequestID, uuid.NewString())
	}
	if r.Token != nil {
		r.Token.SetAuthHeader(req)
	}
	return req, nil
}

// transportError maps a failed round trip to ErrTimeout or ErrNetwork. Cancellation by
// the caller is returned as is.
func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", apperrors.ErrNetwork, err)
}
