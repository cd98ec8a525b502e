package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Values accepted for telemetry.tracing.sampler.
const (
	SamplerAlways = "always"
	SamplerNever  = "never"
	SamplerRatio  = "ratio"
)

// createSampler builds the sampler for spans the relay starts itself.
// When a caller sends a traceparent its sampled flag wins, so a trace that
// started in the browser is never cut at the relay.
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	root, err := rootSampler(strategy, ratio)
	if err != nil {
		return nil, err
	}
	return sdktrace.ParentBased(root), nil
}

func rootSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	switch strategy {
	case SamplerAlways:
		return sdktrace.AlwaysSample(), nil
	case SamplerNever:
		return sdktrace.NeverSample(), nil
	case SamplerRatio:
		if ratio < 0 || ratio > 1 {
			return nil, fmt.Errorf("tracing: sample_ratio %g outside [0, 1]", ratio)
		}
		return sdktrace.TraceIDRatioBased(ratio), nil
	}
	return nil, fmt.Errorf("tracing: unknown sampler %q (want %s, %s or %s)",
		strategy, SamplerAlways, SamplerNever, SamplerRatio)
}
