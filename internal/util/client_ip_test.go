package util

import (
	"net/http/httptest"
	"testing"
)

func TestNewTrustedProxiesParsing(t *testing.T) {
	if set, err := NewTrustedProxies(nil); err != nil || set != nil {
		t.Fatalf("empty input should yield nil set, got %v (%v)", set, err)
	}
	if _, err := NewTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10", "2001:db8::/32"}); err != nil {
		t.Fatalf("valid entries rejected: %v", err)
	}
	if _, err := NewTrustedProxies([]string{"not-an-address"}); err == nil {
		t.Fatal("expected error for garbage entry")
	}
	if _, err := NewTrustedProxies([]string{"10.0.0.0/99"}); err == nil {
		t.Fatal("expected error for bad prefix length")
	}
}

func TestClientIPUntrustedPeerIgnoresHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.10:4431"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	req.Header.Set("X-Real-IP", "203.0.113.6")

	if got := ClientIP(req, nil); got != "198.51.100.10" {
		t.Fatalf("ClientIP = %q, want the direct peer", got)
	}
}

func TestClientIPBehindTrustedProxies(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("build trusted set: %v", err)
	}

	cases := []struct {
		name string
		xff  string
		xrip string
		want string
	}{
		{name: "single forwarded hop", xff: "203.0.113.5", want: "203.0.113.5"},
		{name: "rightmost untrusted hop wins", xff: "203.0.113.5, 10.0.0.10", want: "203.0.113.5"},
		{name: "spoofed left hops are skipped", xff: "198.51.100.99, 203.0.113.5, 10.0.0.10", want: "203.0.113.5"},
		{name: "chain of only proxies yields leftmost", xff: "10.0.0.5, 10.0.0.10", want: "10.0.0.5"},
		{name: "real-ip fallback on garbage chain", xff: "garbage", xrip: "203.0.113.7", want: "203.0.113.7"},
		{name: "no headers yields peer", want: "10.0.0.20"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = "10.0.0.20:9000"
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xrip != "" {
				req.Header.Set("X-Real-IP", tc.xrip)
			}
			if got := ClientIP(req, trusted); got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}
