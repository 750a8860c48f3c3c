package stamp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// permissive validator: httptest servers listen on 127.0.0.1, which the
// production SSRF guard rejects.
func allowAll(string) error { return nil }

func testClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		BaseURL:      srv.URL + "/api",
		URLValidator: allowAll,
	})
}

func TestFetch_DecodesRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stamps/18946" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"stamp_id": "18946",
			"content_type": "image/png",
			"payload": "aGVsbG8=",
			"dispensers": [
				{"source": "bc1qaaa", "rate": 0.002, "remaining": 3, "total": 10},
				{"source": "bc1qbbb", "rate": "0.0015", "remaining": 1, "total": 1},
				{"source": "bc1qccc", "rate_sats": 300000, "remaining": 5, "total": 5}
			]
		}`))
	}))
	defer srv.Close()

	rec, err := testClient(srv).Fetch(context.Background(), "18946")
	if err != nil {
		t.Fatal(err)
	}
	if rec.ContentType != "image/png" {
		t.Fatalf("content type: got %q", rec.ContentType)
	}
	if string(rec.Payload) != "hello" {
		t.Fatalf("payload: got %q", rec.Payload)
	}
	if len(rec.Offers) != 3 {
		t.Fatalf("offers: got %d", len(rec.Offers))
	}
	wantSats := []int64{200000, 150000, 300000}
	for i, w := range wantSats {
		if rec.Offers[i].RateSats != w {
			t.Errorf("offer %d rate: got %d, want %d", i, rec.Offers[i].RateSats, w)
		}
	}
	// Fetch order must be preserved; ordering is the controller's job.
	if rec.Offers[0].Source != "bc1qaaa" {
		t.Fatalf("offer order changed: %q first", rec.Offers[0].Source)
	}
}

func TestFetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv).Fetch(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error: got %v, want ErrNotFound", err)
	}
}

func TestFetch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"content_type": "image/png", "payload": "%%%not-base64%%%"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv).Fetch(context.Background(), "1")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("error: got %v, want ErrMalformed", err)
	}
}

func TestFetch_MismatchedIdentifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"stamp_id": "other", "content_type": "image/png"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv).Fetch(context.Background(), "1")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("error: got %v, want ErrMalformed", err)
	}
}

func TestFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv).Fetch(context.Background(), "1")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMalformed) {
		t.Fatalf("5xx must be a transport failure, got %v", err)
	}
}

func TestFetch_EmptyDispensersIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"content_type": "image/gif", "payload": "R0lGODk=", "dispensers": []}`))
	}))
	defer srv.Close()

	rec, err := testClient(srv).Fetch(context.Background(), "77")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Offers) != 0 {
		t.Fatalf("offers: got %d, want 0", len(rec.Offers))
	}
}

func TestParseBTC(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"0.0015", 150000, false},
		{"0.002", 200000, false},
		{"1", 100000000, false},
		{"21.5", 2150000000, false},
		{"0.00000001", 1, false},
		{".5", 50000000, false},
		{"0.000000001", 0, true}, // 9 decimal places
		{"", 0, true},
		{"abc", 0, true},
		{"-1", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseBTC(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFetch_OversizedRateIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"content_type": "text/plain", "payload": "aGk=",
			"dispensers": [{"source": "bc1qhostile", "rate": 99999999999999999999}]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv).Fetch(context.Background(), "77")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for oversized rate, got %v", err)
	}
}

func TestParseBTC_RejectsOverflow(t *testing.T) {
	// int64 holds ~92 billion BTC in sats; anything past that must error
	// rather than wrap. A wrapped (possibly negative) rate would sort ahead
	// of every real offer and become the default selection.
	cases := []string{
		"99999999999999999999",
		"92233720368.54775808", // math.MaxInt64 sats + 1
		"92233720369",
	}
	for _, in := range cases {
		got, err := ParseBTC(in)
		if err == nil {
			t.Errorf("%q: expected out-of-range error, got %d", in, got)
		}
	}
	// The largest representable amount still parses.
	got, err := ParseBTC("92233720368.54775807")
	if err != nil {
		t.Fatalf("max amount: unexpected error %v", err)
	}
	if got != 9223372036854775807 {
		t.Fatalf("max amount: got %d", got)
	}
}
