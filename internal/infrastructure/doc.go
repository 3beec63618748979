// Package infrastructure provides cross-cutting runtime services: the
// global structured logger, trace ID propagation through contexts, and
// OpenTelemetry tracer setup.
//
// The logger is a log/slog logger configured from config.LoggingConfig.
// Every record emitted with a context carrying a trace ID gets a trace_id
// attribute, so log lines from one request or pipeline run can be
// correlated:
//
//	ctx := infrastructure.EnsureTraceID(ctx)
//	log := infrastructure.LoggerWithContext(ctx)
//	log.InfoContext(ctx, "cleaning started", "rows", ds.Len())
package infrastructure
