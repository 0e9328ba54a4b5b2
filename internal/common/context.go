package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID   contextKey = "run_id"
	ContextKeyPDFFile contextKey = "pdf_file"
)

// WithRunID adds a run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithPDFFile records the document currently being processed.
func WithPDFFile(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ContextKeyPDFFile, name)
}

// PDFFileFromContext extracts the document name from context
func PDFFileFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(ContextKeyPDFFile).(string); ok {
		return name
	}
	return ""
}

// LoggerFrom decorates logger with the run and document attributes found in ctx.
func LoggerFrom(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := RunIDFromContext(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	if f := PDFFileFromContext(ctx); f != "" {
		logger = logger.With("pdf_file", f)
	}
	return logger
}
