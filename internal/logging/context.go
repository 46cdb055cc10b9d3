package logging

import (
	"context"
	"log/slog"

	"tether/internal/services"
)

// Shared attribute keys. Components log under a stable vocabulary so the
// console handler can promote the component name to a message prefix and
// downstream tooling can filter JSON output by field.
const (
	FieldComponent  = "component"
	FieldSessionKey = "session_key"
	FieldSubject    = "subject"
	FieldStage      = "stage"
	FieldWorker     = "worker"
	FieldRunID      = "run_id"
)

// ContextFields extracts the conversion identity carried on ctx as slog
// attributes. Absent values produce no attribute.
func ContextFields(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if key, ok := services.SessionKeyFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldSessionKey, key))
	}
	if subject, ok := services.SubjectFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldSubject, subject))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldStage, stage))
	}
	if worker, ok := services.WorkerFromContext(ctx); ok {
		attrs = append(attrs, slog.Int(FieldWorker, worker))
	}
	if id, ok := services.RunIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldRunID, id))
	}
	return attrs
}

// WithContext returns logger extended with every identity field present on
// ctx. Loggers handed to session workers pass through here once per claim.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	attrs := ContextFields(ctx)
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return logger.With(args...)
}
