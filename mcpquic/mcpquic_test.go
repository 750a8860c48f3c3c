package mcpquic

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMagicBytesRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	if err := SendMagicBytes(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != MagicBytesMCP {
		t.Fatalf("magic: got %q, want %q", buf.String(), MagicBytesMCP)
	}
	if err := ValidateMagicBytes(&buf); err != nil {
		t.Fatal(err)
	}
}

func TestValidateMagicBytesRejectsOtherProtocols(t *testing.T) {
	err := ValidateMagicBytes(bytes.NewReader([]byte("HTTP")))
	if !errors.Is(err, ErrInvalidMagicBytes) {
		t.Fatalf("want ErrInvalidMagicBytes, got: %v", err)
	}
}

func TestValidateMagicBytesShortRead(t *testing.T) {
	if err := ValidateMagicBytes(bytes.NewReader([]byte("MC"))); err == nil {
		t.Fatal("expected error for truncated prefix")
	}
}

func TestProductionQUICConfig(t *testing.T) {
	cfg := ProductionQUICConfig()
	if cfg.MaxIdleTimeout != DefaultIdleTimeout {
		t.Fatalf("idle timeout: got %v", cfg.MaxIdleTimeout)
	}
	if cfg.KeepAlivePeriod != DefaultKeepAlive {
		t.Fatalf("keepalive: got %v", cfg.KeepAlivePeriod)
	}
	if cfg.Allow0RTT {
		t.Fatal("0-RTT should be disabled")
	}
}

func TestSelfSignedTLSConfig(t *testing.T) {
	cfg, err := SelfSignedTLSConfig()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Certificates) != 1 {
		t.Fatalf("certs: got %d", len(cfg.Certificates))
	}
	if cfg.MinVersion != 0x0304 { // tls.VersionTLS13
		t.Fatalf("min version: got %x", cfg.MinVersion)
	}
	found := false
	for _, p := range cfg.NextProtos {
		if p == ALPNProtocolMCP {
			found = true
		}
	}
	if !found {
		t.Fatalf("ALPN: mcp protocol not in %v", cfg.NextProtos)
	}
}

func TestClientTLSConfig(t *testing.T) {
	insecure := ClientTLSConfig(true)
	if !insecure.InsecureSkipVerify {
		t.Fatal("expected InsecureSkipVerify=true")
	}
	if insecure.MinVersion != 0x0304 {
		t.Fatalf("min version: got %x", insecure.MinVersion)
	}
	if ClientTLSConfig(false).InsecureSkipVerify {
		t.Fatal("expected InsecureSkipVerify=false")
	}
}

func TestProtocolConstants(t *testing.T) {
	if ALPNProtocolMCP != "mcp-quic-v1" {
		t.Fatalf("ALPN: got %q", ALPNProtocolMCP)
	}
	if MagicBytesMCP != "MCP1" {
		t.Fatalf("magic: got %q", MagicBytesMCP)
	}
	if MaxMessageSize != 10*1024*1024 {
		t.Fatalf("max message: got %d", MaxMessageSize)
	}
}

func TestConnectionError(t *testing.T) {
	inner := errors.New("timeout")
	ce := &ConnectionError{
		RemoteAddr: "127.0.0.1:8443",
		Code:       ConnErrorProtocolViolation,
		Err:        inner,
	}

	msg := ce.Error()
	if !strings.Contains(msg, "127.0.0.1:8443") {
		t.Fatalf("error missing remote addr: %s", msg)
	}
	if !strings.Contains(msg, "0x03") {
		t.Fatalf("error missing code: %s", msg)
	}
	if !errors.Is(ce, inner) {
		t.Fatal("Unwrap should return the inner error")
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("localhost:8443", nil)
	if c.addr != "localhost:8443" {
		t.Fatalf("addr: got %q", c.addr)
	}
	if c.tlsCfg == nil || c.tlsCfg.InsecureSkipVerify {
		t.Fatal("default TLS should verify the server certificate")
	}

	custom := ClientTLSConfig(false)
	if NewClient("srv:9000", custom).tlsCfg != custom {
		t.Fatal("custom TLS config not applied")
	}
}

func TestClientNotConnected(t *testing.T) {
	c := NewClient("localhost:1234", nil)

	ctx := context.Background()
	if _, err := c.ListTools(ctx); err == nil {
		t.Fatal("expected error when not connected")
	}
	if _, err := c.CallTool(ctx, "test", nil); err == nil {
		t.Fatal("expected error when not connected")
	}
	if err := c.Ping(ctx); err == nil {
		t.Fatal("expected error when not connected")
	}
}
