// Copyright © 2024 The Declavatar authors

package cmd

import (
	"context"
	"io"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// spanLogger exports finished spans as log records.
type spanLogger struct {
	logger *slog.Logger
}

var _ sdktrace.SpanExporter = (*spanLogger)(nil)

func (e *spanLogger) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		attrs := []slog.Attr{
			slog.String("span", s.Name()),
			slog.Duration("duration", s.EndTime().Sub(s.StartTime())),
			slog.String("trace_id", s.SpanContext().TraceID().String()),
		}
		for _, kv := range s.Attributes() {
			attrs = append(attrs, slog.String(string(kv.Key), kv.Value.Emit()))
		}
		e.logger.LogAttrs(ctx, slog.LevelInfo, "span", attrs...)
	}
	return nil
}

func (e *spanLogger) Shutdown(context.Context) error {
	return nil
}

// newTracerProvider returns a provider writing every span to w as soon as
// it ends.
func newTracerProvider(w io.Writer) *sdktrace.TracerProvider {
	exp := &spanLogger{logger: slog.New(slog.NewTextHandler(w, nil))}
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
}
