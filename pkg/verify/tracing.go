package verify

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/integrail/chatbot-verify/internal/build"
)

const tracerName = "github.com/integrail/chatbot-verify/pkg/verify"

// Span names and attribute keys recorded by the runner.
const (
	SpanRun = "chatbot-verify.run"

	AttrRunID  = attribute.Key("verify.run.id")
	AttrDriver = attribute.Key("verify.driver")
	AttrURL    = attribute.Key("verify.url")
	AttrStep   = attribute.Key("verify.step.name")
	AttrIndex  = attribute.Key("verify.step.index")
)

// TracerProvider exports spans as JSON to a file.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	file     *os.File
}

func NewFileTracerProvider(path string) (*TracerProvider, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create trace directory")
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create trace file %s", path)
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(file),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "failed to create trace exporter")
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String("chatbot-verify"),
			semconv.ServiceVersionKey.String(build.Version),
		),
	)
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "failed to create resource")
	}

	return &TracerProvider{
		provider: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		),
		file: file,
	}, nil
}

func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.provider.Tracer(tracerName)
}

// Shutdown flushes pending spans and closes the file.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	err := tp.provider.Shutdown(ctx)
	if cerr := tp.file.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "failed to flush traces")
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
