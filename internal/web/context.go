package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/returnsdesk/internal/store"
)

// withRequestMetadata records the client address and User-Agent as import
// provenance. RemoteAddr has already been rewritten by TrustedRealIP.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return store.WithSource(ctx, store.Source{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
