package safeurl

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_Schemes(t *testing.T) {
	cases := []struct {
		url     string
		wantErr error
	}{
		{"https://stampchain.io/api/stamps/1", nil},
		{"http://example.com/x", nil},
		{"ftp://example.com/x", ErrUnsafeScheme},
		{"file:///etc/passwd", ErrUnsafeScheme},
		{"javascript:alert(1)", ErrUnsafeScheme},
	}
	for _, tc := range cases {
		err := Validate(tc.url)
		if tc.wantErr == nil && err != nil {
			t.Errorf("%s: unexpected error %v", tc.url, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: got %v, want %v", tc.url, err, tc.wantErr)
		}
	}
}

func TestValidate_PrivateAddresses(t *testing.T) {
	blocked := []string{
		"http://127.0.0.1/admin",
		"http://10.1.2.3/x",
		"http://172.16.0.1/x",
		"http://192.168.1.1/x",
		"http://169.254.169.254/latest/meta-data",
		"http://[::1]/x",
	}
	for _, u := range blocked {
		if err := Validate(u); !errors.Is(err, ErrSSRF) {
			t.Errorf("%s: got %v, want ErrSSRF", u, err)
		}
	}
}

func TestValidate_NoHost(t *testing.T) {
	if err := Validate("http:///path-only"); err == nil {
		t.Fatal("expected error for URL without host")
	}
}

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"a", "stamp-123", "A_b.c", "18946"}
	for _, s := range valid {
		if err := ValidateIdentifier(s); err != nil {
			t.Errorf("%q: unexpected error %v", s, err)
		}
	}
	invalid := []string{"", "a b", "x/y", "é", strings.Repeat("a", 257)}
	for _, s := range invalid {
		if err := ValidateIdentifier(s); err == nil {
			t.Errorf("%q: expected error", s)
		}
	}
}

func TestLimitedReadAll(t *testing.T) {
	data, err := LimitedReadAll(strings.NewReader("hello"), 10)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("got %q", data)
	}

	if _, err := LimitedReadAll(strings.NewReader("hello world"), 5); err == nil {
		t.Fatal("expected error over limit")
	}
}
