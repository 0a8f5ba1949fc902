package daemon

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// daemonTracer is the OTel tracer for cache-rebuild spans. It uses the
// global provider, which is a no-op until a real one is installed.
var daemonTracer = otel.Tracer("github.com/engram-dev/engram/daemon")

// daemonMetrics holds the OTel metric instruments recorded by the request
// dispatch loop. Instruments are registered against the global delegating
// provider at init time, so they automatically forward to the real
// provider once InitTelemetry runs, exactly as the teacher's doltMetrics do.
var daemonMetrics struct {
	requestCount   metric.Int64Counter
	requestLatency metric.Float64Histogram
}

func init() {
	m := otel.Meter("github.com/engram-dev/engram/daemon")
	daemonMetrics.requestCount, _ = m.Int64Counter("engram.daemon.request_count",
		metric.WithDescription("RPC requests dispatched, by operation"),
		metric.WithUnit("{request}"),
	)
	daemonMetrics.requestLatency, _ = m.Float64Histogram("engram.daemon.request_latency_ms",
		metric.WithDescription("Time spent dispatching one RPC request"),
		metric.WithUnit("ms"),
	)
}

// InitTelemetry installs an OTLP HTTP metric exporter against endpoint as
// the global meter provider. Called only when the daemon (cmd/engramd or
// "engram daemon") is started with --otlp-endpoint; otherwise the global no-op provider is left in place and
// recordRequest's Add/Record calls are cheap no-ops.
func InitTelemetry(ctx context.Context, endpoint string) (shutdown func(context.Context) error, err error) {
	exporter, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("daemon: create otlp exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// recordRequest records one dispatched request's operation and latency.
func recordRequest(ctx context.Context, op string, start time.Time, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("op", op),
		attribute.Bool("error", err != nil),
	}
	daemonMetrics.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	daemonMetrics.requestLatency.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
}

// traceRebuild wraps a cache rebuild in a span, mirroring doltTracer's use
// around SQL-level operations in the teacher.
func traceRebuild(ctx context.Context, fn func(context.Context) error) error {
	ctx, span := daemonTracer.Start(ctx, "cache.rebuild")
	defer span.End()
	return fn(ctx)
}
