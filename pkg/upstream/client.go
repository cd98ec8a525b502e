package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"relay-hq/gemini/pkg/telemetry/metrics"
	"relay-hq/gemini/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the public generative-language API host.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// APIVersion is the API version segment of the generateContent path.
	APIVersion = "v1beta"

	// Model is the model every prompt is sent to.
	Model = "gemini-2.5-flash-preview-09-2025"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is scheme and host of the API, without a trailing path.
	// Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout bounds a whole upstream call. Zero means no timeout.
	Timeout time.Duration

	// HTTPClient overrides the pooled client built by NewClient.
	HTTPClient *http.Client

	// Metrics receives upstream call and error observations. May be nil.
	Metrics *metrics.Collector

	// Tracer wraps each call in a client span and propagates trace
	// context to the API. May be nil.
	Tracer *tracing.Tracer
}

// RawResponse is an upstream HTTP response before normalization.
type RawResponse struct {
	// StatusCode is the upstream HTTP status.
	StatusCode int

	// Body is the response body; nil if reading it failed.
	Body []byte

	// ReadErr is set when the body could not be read completely.
	ReadErr error
}

// OK reports whether the upstream status is in the 2xx range.
func (r *RawResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// Text returns the body as text, or "" if it could not be read.
func (r *RawResponse) Text() string {
	if r.ReadErr != nil {
		return ""
	}
	return string(r.Body)
}

// Document parses the body as JSON, falling back to an empty object when
// the body could not be read or is not JSON.
func (r *RawResponse) Document() ParseResult {
	if r.ReadErr != nil {
		return emptyDocument(r.ReadErr)
	}
	return ParseDocument(r.Body)
}

// Client calls the Gemini generateContent endpoint. A Client is safe for
// concurrent use.
type Client struct {
	baseURL *url.URL
	client  *http.Client
	metrics *metrics.Collector
	tracer  *tracing.Tracer
}

// NewClient creates a client for the configured base URL.
func NewClient(cfg ClientConfig) (*Client, error) {
	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}

	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid upstream base URL %q: scheme must be http or https", raw)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("invalid upstream base URL %q: missing host", raw)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
			Timeout: cfg.Timeout,
		}
	}

	return &Client{
		baseURL: base,
		client:  httpClient,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
	}, nil
}

// Endpoint returns the generateContent URL carrying apiKey as the key
// query parameter.
func (c *Client) Endpoint(apiKey string) string {
	u := c.endpointURL()
	u.RawQuery = url.Values{"key": []string{apiKey}}.Encode()
	return u.String()
}

// redactedEndpoint is Endpoint with the credential masked, for errors and logs.
func (c *Client) redactedEndpoint() string {
	u := c.endpointURL()
	u.RawQuery = "key=***"
	return u.String()
}

func (c *Client) endpointURL() *url.URL {
	u := *c.baseURL
	u.Path = u.Path + "/" + APIVersion + "/models/" + Model + ":generateContent"
	u.RawPath = ""
	return &u
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// encodeRequest builds {"contents":[{"parts":[{"text":prompt}]}]}.
func encodeRequest(prompt string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// GenerateContent sends prompt to the model in a single attempt.
//
// Any HTTP status, including 4xx and 5xx, is returned as a RawResponse.
// The error is non-nil only when no response was received, and is then a
// *TransportError whose message never contains apiKey.
func (c *Client) GenerateContent(ctx context.Context, apiKey, prompt string) (*RawResponse, error) {
	ctx, span := c.tracer.Start(ctx, tracing.SpanGenerateContent, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	tracing.SetUpstreamAttributes(span, Model, c.redactedEndpoint())

	body, err := encodeRequest(prompt)
	if err != nil {
		tracing.SetError(span, err, "encode")
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(apiKey), bytes.NewReader(body))
	if err != nil {
		terr := c.transportError("build request", err)
		tracing.SetError(span, terr, terr.Kind())
		return nil, terr
	}
	req.Header.Set("Content-Type", "application/json")
	c.tracer.Inject(ctx, req.Header)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamCall(Model, 0, time.Since(start))
		terr := c.transportError(http.MethodPost, err)
		c.metrics.RecordUpstreamError(Model, terr.Kind())
		tracing.SetError(span, terr, terr.Kind())
		return nil, terr
	}
	defer resp.Body.Close()

	read := ReadBody(resp.Body)
	c.metrics.RecordUpstreamCall(Model, resp.StatusCode, time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordUpstreamError(Model, metrics.ErrorTypeStatus)
	}
	tracing.SetHTTPStatus(span, resp.StatusCode, http.StatusBadRequest)

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Body:       read.Body,
		ReadErr:    read.Err,
	}, nil
}

func (c *Client) transportError(op string, err error) *TransportError {
	// *url.Error embeds the request URL, which carries the credential.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return &TransportError{
		Op:    op,
		URL:   c.redactedEndpoint(),
		Cause: err,
	}
}

// ReadResult is the outcome of a best-effort body read.
type ReadResult struct {
	// Body holds the complete body, or nil when Err is set.
	Body []byte

	// Err is the read failure, if any.
	Err error
}

// ReadBody reads r to the end. It never fails: a read error yields an
// empty body with Err set.
func ReadBody(r io.Reader) ReadResult {
	body, err := io.ReadAll(r)
	if err != nil {
		return ReadResult{Err: err}
	}
	return ReadResult{Body: body}
}

// classify maps a transport failure to a metrics error type.
func classify(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return metrics.ErrorTypeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.ErrorTypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return metrics.ErrorTypeTimeout
	}
	return metrics.ErrorTypeTransport
}
