// Package telemetry configures OpenTelemetry tracing for the CLI.
//
// Spans cover whole turns (open → final result, including any replay) so
// slow or flaky streams can be diagnosed from debug output. Spans are
// exported through the structured logger rather than a network exporter;
// a CLI should never block exit on telemetry delivery.
package telemetry

import (
	"context"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/hatch-dev/cli"

// Init installs a tracer provider backed by the log exporter and returns a
// shutdown function to flush pending spans before exit.
func Init() func(context.Context) error {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(&logExporter{}),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

// Tracer returns the CLI's tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// logExporter writes finished spans to the debug log.
type logExporter struct{}

// ExportSpans implements sdktrace.SpanExporter.
func (e *logExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := []interface{}{
			"span", s.Name(),
			"duration", s.EndTime().Sub(s.StartTime()),
			"status", s.Status().Code.String(),
		}
		for _, attr := range s.Attributes() {
			fields = append(fields, string(attr.Key), attr.Value.Emit())
		}
		log.Debug("span completed", fields...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *logExporter) Shutdown(context.Context) error { return nil }
