package store

import "context"

type contextKey string

const ctxKeySource contextKey = "import_source"

// Source describes where a persisted batch came from. It is recorded on the
// imports table alongside the row count.
type Source struct {
	SessionID string
	FileName  string
	IPAddress string
	UserAgent string
}

// WithSource attaches import provenance to ctx. Fields left empty keep any
// value already on ctx.
func WithSource(ctx context.Context, src Source) context.Context {
	prev := SourceFromContext(ctx)
	if src.SessionID == "" {
		src.SessionID = prev.SessionID
	}
	if src.FileName == "" {
		src.FileName = prev.FileName
	}
	if src.IPAddress == "" {
		src.IPAddress = prev.IPAddress
	}
	if src.UserAgent == "" {
		src.UserAgent = prev.UserAgent
	}
	return context.WithValue(ctx, ctxKeySource, src)
}

// SourceFromContext returns the provenance on ctx, or a zero Source.
func SourceFromContext(ctx context.Context) Source {
	if v, ok := ctx.Value(ctxKeySource).(Source); ok {
		return v
	}
	return Source{}
}
