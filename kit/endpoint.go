package kit

import (
	"context"
	"log/slog"
	"time"
)

// Endpoint is the transport-agnostic unit of work: a typed request in, a
// typed response out. HTTP handlers and MCP tools both terminate in one.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour.
type Middleware func(Endpoint) Endpoint

// Chain composes middleware left to right: the first argument is the
// outermost wrapper.
func Chain(mw ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mw) - 1; i >= 0; i-- {
			next = mw[i](next)
		}
		return next
	}
}

// Instrument returns middleware that logs each call together with the
// identity carried in the context: transport, request, session and peer.
func Instrument(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			logger.Debug("endpoint handled",
				"transport", GetTransport(ctx),
				"request_id", GetRequestID(ctx),
				"session_id", GetSessionID(ctx),
				"remote_addr", GetRemoteAddr(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
				"ok", err == nil)
			return resp, err
		}
	}
}
