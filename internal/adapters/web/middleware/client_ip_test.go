package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP_IgnoresHeaders(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr", "192.0.2.10:4312", nil, "192.0.2.10"},
		{"ipv6 remote addr", "[2001:db8::1]:443", nil, "2001:db8::1"},
		{"forwarded for", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "10.0.0.1"},
		{"real ip", "10.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.3"}, "10.0.0.1"},
		{"no port", "pipe", nil, "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestProxyTrust_ClientIP(t *testing.T) {
	trust, err := NewProxyTrust([]string{"10.0.0.0/8", "192.0.2.50"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted peer keeps its address", "203.0.113.7:5000", map[string]string{"X-Forwarded-For": "198.51.100.1"}, "203.0.113.7"},
		{"trusted peer without headers", "10.0.0.1:80", nil, "10.0.0.1"},
		{"trusted cidr forwards", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "203.0.113.7"},
		{"trusted single ip forwards", "192.0.2.50:80", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "203.0.113.7"},
		{"spoofed leftmost hop is skipped", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.7, 10.0.0.2"}, "203.0.113.7"},
		{"all hops trusted", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "10.0.0.3, 10.0.0.2"}, "10.0.0.3"},
		{"garbage header falls back to real ip", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "nonsense", "X-Real-IP": "198.51.100.3"}, "198.51.100.3"},
		{"garbage real ip falls back to peer", "10.0.0.1:80", map[string]string{"X-Real-IP": "nonsense"}, "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, trust.ClientIP(req))
		})
	}
}

func TestProxyTrust_NilTrustsNobody(t *testing.T) {
	var trust *ProxyTrust
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:80"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")

	assert.False(t, trust.Trusted("10.0.0.1"))
	assert.Equal(t, "10.0.0.1", trust.ClientIP(req))
}

func TestNewProxyTrust_RejectsInvalidEntries(t *testing.T) {
	for _, entry := range []string{"not-an-ip", "10.0.0.0/33", "10.0.0"} {
		_, err := NewProxyTrust([]string{entry})
		assert.Error(t, err, entry)
	}

	trust, err := NewProxyTrust([]string{" ", "::1"})
	require.NoError(t, err)
	assert.True(t, trust.Trusted("::1"))
	assert.False(t, trust.Trusted("::2"))
}
