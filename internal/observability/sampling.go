package observability

import (
	"os"
	"strconv"
	"strings"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	envTracesSampler    = "OTEL_TRACES_SAMPLER"
	envTracesSamplerArg = "OTEL_TRACES_SAMPLER_ARG"
)

// newSampler builds the sampler named by OTEL_TRACES_SAMPLER. Ratio samplers read
// OTEL_TRACES_SAMPLER_ARG and fall back to 1.0 when it is missing or out of range.
// Empty or unknown names give parentbased_always_on, the SDK default.
func newSampler() sdktrace.Sampler {
	name := strings.ToLower(strings.TrimSpace(os.Getenv(envTracesSampler)))
	ratio := parseTraceIDRatio(os.Getenv(envTracesSamplerArg))

	base := map[string]sdktrace.Sampler{
		"always_on":    sdktrace.AlwaysSample(),
		"always_off":   sdktrace.NeverSample(),
		"traceidratio": sdktrace.TraceIDRatioBased(ratio),
	}

	if s, ok := base[name]; ok {
		return s
	}

	if inner, ok := base[strings.TrimPrefix(name, "parentbased_")]; ok {
		return sdktrace.ParentBased(inner)
	}

	return sdktrace.ParentBased(sdktrace.AlwaysSample())
}

func parseTraceIDRatio(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || f > 1 {
		return 1.0
	}

	return f
}
