// Package tracing installs the OpenTelemetry tracer provider submissions
// report their spans to.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/zjrosen/urlpad/internal/config"
	"github.com/zjrosen/urlpad/internal/log"
)

// ServiceName is reported as the service.name resource attribute.
const ServiceName = "urlpad"

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs a global tracer provider for the configured exporter.
// With exporter "none" the global no-op provider is left in place.
func Setup(ctx context.Context, cfg config.Trace, version string) (ShutdownFunc, error) {
	exporter, closer, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if exporter == nil {
		log.Debug(log.CatTrace, "tracing disabled")
		return noopShutdown, nil
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	log.Info(log.CatTrace, "tracing enabled", "exporter", cfg.Exporter)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closer != nil {
			if cerr := closer.Close(); err == nil {
				err = cerr
			}
		}
		if err != nil {
			return fmt.Errorf("shutting down tracer provider: %w", err)
		}
		return nil
	}, nil
}

// newExporter returns a nil exporter for "none". The closer, when non-nil,
// owns the trace file.
func newExporter(ctx context.Context, cfg config.Trace) (sdktrace.SpanExporter, io.Closer, error) {
	switch cfg.Exporter {
	case "", config.TraceNone:
		return nil, nil, nil

	case config.TraceStdout:
		var w io.Writer = os.Stdout
		var closer io.Closer
		if cfg.File != "" {
			f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: user-chosen trace file
			if err != nil {
				return nil, nil, fmt.Errorf("opening trace file %s: %w", cfg.File, err)
			}
			w, closer = f, f
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			if closer != nil {
				_ = closer.Close()
			}
			return nil, nil, fmt.Errorf("creating stdout exporter: %w", err)
		}
		return exp, closer, nil

	case config.TraceOTLP:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("creating otlp exporter: %w", err)
		}
		return exp, nil, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidTrace, cfg.Exporter)
}
