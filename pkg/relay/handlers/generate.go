package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"relay-hq/gemini/pkg/evidence"
	"relay-hq/gemini/pkg/evidence/recorder"
	"relay-hq/gemini/pkg/relay/types"
	"relay-hq/gemini/pkg/security/secrets"
	"relay-hq/gemini/pkg/telemetry/logging"
	"relay-hq/gemini/pkg/telemetry/metrics"
	"relay-hq/gemini/pkg/telemetry/tracing"
	"relay-hq/gemini/pkg/upstream"
)

// Generator sends a prompt to the model. *upstream.Client implements it.
type Generator interface {
	GenerateContent(ctx context.Context, apiKey, prompt string) (*upstream.RawResponse, error)
}

// EvidenceRecorder persists an audit record for a relayed request.
// *recorder.Recorder implements it.
type EvidenceRecorder interface {
	Record(ctx context.Context, rec *evidence.Record) error
}

// Config holds the dependencies of a GenerateHandler.
type Config struct {
	// Client performs the upstream call. Required.
	Client Generator

	// Secrets resolves the Gemini credential on every request. Required.
	Secrets secrets.Resolver

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics may be nil.
	Metrics *metrics.Collector

	// Evidence receives one record per non-preflight request. Nil
	// disables recording.
	Evidence EvidenceRecorder
}

// GenerateHandler relays a prompt to Gemini and answers with an
// types.Envelope. It holds no per-request state and is safe for
// concurrent use.
type GenerateHandler struct {
	client   Generator
	secrets  secrets.Resolver
	logger   *slog.Logger
	metrics  *metrics.Collector
	evidence EvidenceRecorder
}

// NewGenerateHandler creates the relay handler.
func NewGenerateHandler(cfg Config) (*GenerateHandler, error) {
	if cfg.Client == nil {
		return nil, errors.New("upstream client is required")
	}
	if cfg.Secrets == nil {
		return nil, errors.New("secret resolver is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GenerateHandler{
		client:   cfg.Client,
		secrets:  cfg.Secrets,
		logger:   logger,
		metrics:  cfg.Metrics,
		evidence: cfg.Evidence,
	}, nil
}

// outcome is what a request resolved to.
type outcome struct {
	status int
	env    types.Envelope
	label  string

	// Set only when the upstream answered.
	upstreamStatus  int
	upstreamLatency time.Duration
	response        []byte
}

// ServeHTTP handles one relay request. CORS headers are the job of the
// surrounding middleware; OPTIONS is answered here as well so the handler
// is correct when mounted bare.
//
// Request:
//
//	POST /  {"prompt": "Say hello"}
//
// Response codes: 204 (OPTIONS), 200, 400, 405, 500, 502.
func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := logging.WithModel(r.Context(), upstream.Model)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		h.metrics.RecordRequest(metrics.OutcomePreflight, http.StatusNoContent, time.Since(start))
		return
	}

	var out outcome
	var prompt string
	var promptBytes int
	if r.Method != http.MethodPost {
		out = outcome{status: http.StatusMethodNotAllowed, env: types.Failure(types.MsgMethodNotAllowed), label: metrics.OutcomeMethodNotAllowed}
	} else if p, ok := decodePrompt(r.Body); !ok {
		out = outcome{status: http.StatusBadRequest, env: types.Failure(types.MsgPromptRequired), label: metrics.OutcomeBadRequest}
	} else {
		prompt = p
		promptBytes = len(prompt)
		h.metrics.RecordPromptSize(promptBytes)
		out = h.relay(ctx, prompt)
	}
	tracing.SetOutcome(tracing.SpanFromContext(ctx), out.label, promptBytes)

	if err := types.WriteEnvelope(w, out.status, out.env); err != nil {
		h.logger.DebugContext(ctx, "failed to write response", "error", err)
	}
	latency := time.Since(start)
	h.metrics.RecordRequest(out.label, out.status, latency)
	h.recordEvidence(ctx, r, start, latency, prompt, out)
}

// recordEvidence hands an audit record to the recorder. Only hashes and
// sizes of the prompt and response are kept.
func (h *GenerateHandler) recordEvidence(ctx context.Context, r *http.Request, start time.Time, latency time.Duration, prompt string, out outcome) {
	if h.evidence == nil {
		return
	}

	rec := &evidence.Record{
		RequestID:       logging.GetRequestID(ctx),
		TraceID:         tracing.TraceID(ctx),
		RequestTime:     start,
		Method:          r.Method,
		Path:            r.URL.Path,
		RemoteAddr:      r.RemoteAddr,
		UserAgent:       r.UserAgent(),
		Origin:          r.Header.Get("Origin"),
		Model:           upstream.APIVersion + "/" + upstream.Model,
		PromptBytes:     len(prompt),
		Outcome:         out.label,
		Status:          out.status,
		Latency:         latency,
		UpstreamStatus:  out.upstreamStatus,
		UpstreamLatency: out.upstreamLatency,
		ResponseBytes:   len(out.response),
		Error:           out.env.Error,
		ErrorDetails:    out.env.Details,
	}
	if prompt != "" {
		rec.PromptHash = recorder.HashString(prompt)
	}
	if out.response != nil {
		rec.ResponseHash = recorder.HashContent(out.response)
	}

	if err := h.evidence.Record(ctx, rec); err != nil {
		h.logger.WarnContext(ctx, "failed to record evidence", "record_id", rec.ID, "error", err)
	}
}

// relay covers credential lookup, the upstream call and normalization.
// Any panic in these steps becomes a 500 envelope.
func (h *GenerateHandler) relay(ctx context.Context, prompt string) (out outcome) {
	redactor := logging.NewRedactor()

	defer func() {
		if rec := recover(); rec != nil {
			details := redactor.RedactString(fmt.Sprint(rec))
			h.logger.ErrorContext(ctx, "panic while relaying prompt", "error", details)
			out = outcome{status: http.StatusInternalServerError, env: types.ServerFailure(details), label: metrics.OutcomeServerError}
		}
	}()

	apiKey, err := h.secrets.GetSecret(ctx, secrets.GeminiAPIKey)
	if err != nil || apiKey == "" {
		if err != nil && !errors.Is(err, secrets.ErrNotFound) {
			h.logger.ErrorContext(ctx, "credential lookup failed", "error", err)
		}
		return outcome{status: http.StatusInternalServerError, env: types.Failure(types.MsgKeyNotConfigured), label: metrics.OutcomeConfigError}
	}
	redactor = logging.NewRedactor(apiKey)

	callStart := time.Now()
	resp, err := h.client.GenerateContent(ctx, apiKey, prompt)
	callLatency := time.Since(callStart)
	if err != nil {
		details := redactor.RedactString(err.Error())
		h.logger.ErrorContext(ctx, "error calling Gemini", "error", details)
		return outcome{
			status:          http.StatusInternalServerError,
			env:             types.ServerFailure(details),
			label:           metrics.OutcomeServerError,
			upstreamLatency: callLatency,
		}
	}

	if !resp.OK() {
		if resp.ReadErr != nil {
			h.logger.WarnContext(ctx, "failed to read upstream error body", "error", resp.ReadErr)
		}
		h.logger.WarnContext(ctx, "upstream returned an error status", "status", resp.StatusCode)
		return outcome{
			status:          http.StatusBadGateway,
			env:             types.UpstreamFailure(resp.StatusCode, resp.Text()),
			label:           metrics.OutcomeUpstreamError,
			upstreamStatus:  resp.StatusCode,
			upstreamLatency: callLatency,
			response:        resp.Body,
		}
	}

	doc := resp.Document()
	if doc.Err != nil {
		h.logger.WarnContext(ctx, "upstream body is not JSON, relaying empty object", "error", doc.Err)
	}

	return outcome{
		status:          http.StatusOK,
		env:             types.Success(upstream.ExtractText(doc.Doc), doc.Raw),
		label:           metrics.OutcomeSuccess,
		upstreamStatus:  resp.StatusCode,
		upstreamLatency: callLatency,
		response:        resp.Body,
	}
}

// decodePrompt extracts a non-empty string "prompt" from a JSON object
// body. Any other body shape, including no body at all, is rejected.
func decodePrompt(body io.Reader) (string, bool) {
	if body == nil {
		return "", false
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", false
	}

	raw, ok := fields["prompt"]
	if !ok {
		return "", false
	}

	var prompt string
	if err := json.Unmarshal(raw, &prompt); err != nil || prompt == "" {
		return "", false
	}
	return prompt, true
}
