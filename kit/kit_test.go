package kit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}

	base := func(_ context.Context, _ any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	chained := Chain(mw("a"), mw("b"), mw("c"))(base)
	resp, err := chained(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != "ok" {
		t.Fatalf("response: got %v", resp)
	}

	expected := []string{"a_before", "b_before", "c_before", "endpoint", "c_after", "b_after", "a_after"}
	if len(order) != len(expected) {
		t.Fatalf("order length: got %d, want %d", len(order), len(expected))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Fatalf("order[%d]: got %q, want %q", i, order[i], v)
		}
	}
}

func TestChain_ErrorPropagation(t *testing.T) {
	errFail := errors.New("fail")
	base := func(_ context.Context, _ any) (any, error) {
		return nil, errFail
	}

	noop := func(next Endpoint) Endpoint { return next }
	chained := Chain(noop)(base)

	_, err := chained(context.Background(), nil)
	if !errors.Is(err, errFail) {
		t.Fatalf("error: got %v, want %v", err, errFail)
	}
}

func TestInstrument_PassesThrough(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	errFail := errors.New("fail")
	base := func(_ context.Context, req any) (any, error) {
		if req == "bad" {
			return nil, errFail
		}
		return "ok", nil
	}
	ep := Chain(Instrument(logger))(base)

	ctx := WithSessionID(WithTransport(context.Background(), "mcp_quic"), "sess_9")
	resp, err := ep(ctx, "good")
	if err != nil {
		t.Fatal(err)
	}
	if resp != "ok" {
		t.Fatalf("response: got %v", resp)
	}
	if _, err := ep(ctx, "bad"); !errors.Is(err, errFail) {
		t.Fatalf("error: got %v, want %v", err, errFail)
	}
}

func TestContextIdentity(t *testing.T) {
	ctx := context.Background()
	ctx = WithTransport(ctx, "mcp_quic")
	ctx = WithRequestID(ctx, "req_1")
	ctx = WithSessionID(ctx, "sess_1")
	ctx = WithTraceID(ctx, "abcd1234")
	ctx = WithRemoteAddr(ctx, "10.0.0.1:999")

	if got := GetTransport(ctx); got != "mcp_quic" {
		t.Fatalf("transport: got %q", got)
	}
	if got := GetRequestID(ctx); got != "req_1" {
		t.Fatalf("request: got %q", got)
	}
	if got := GetSessionID(ctx); got != "sess_1" {
		t.Fatalf("session: got %q", got)
	}
	if got := GetTraceID(ctx); got != "abcd1234" {
		t.Fatalf("trace: got %q", got)
	}
	if got := GetRemoteAddr(ctx); got != "10.0.0.1:999" {
		t.Fatalf("remote: got %q", got)
	}
}

func TestGetTransport_Default(t *testing.T) {
	if got := GetTransport(context.Background()); got != "http" {
		t.Fatalf("default transport: got %q, want http", got)
	}
}
