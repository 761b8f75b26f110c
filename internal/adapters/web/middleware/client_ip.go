package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
)

// ClientIP returns the host part of the peer address. Forwarding headers are
// ignored; see ProxyTrust.ClientIP.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestClientIP prefers the address RequestID stored in the context.
func requestClientIP(r *http.Request) string {
	if ip := domain.RequestInfoFrom(r.Context()).ClientIP; ip != "" {
		return ip
	}
	return ClientIP(r)
}

// ProxyTrust lists the reverse proxies whose X-Forwarded-For and X-Real-IP
// headers are believed.
type ProxyTrust struct {
	nets []*net.IPNet
}

// NewProxyTrust parses proxies, each a single IP or a CIDR block.
func NewProxyTrust(proxies []string) (*ProxyTrust, error) {
	t := &ProxyTrust{}
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", p)
			}
			bits := 8 * net.IPv6len
			if ip4 := ip.To4(); ip4 != nil {
				ip, bits = ip4, 8*net.IPv4len
			}
			t.nets = append(t.nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, block, err := net.ParseCIDR(p)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		t.nets = append(t.nets, block)
	}
	return t, nil
}

// Trusted reports whether ip belongs to a trusted proxy.
func (t *ProxyTrust) Trusted(ip string) bool {
	if t == nil {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range t.nets {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// ClientIP resolves the originating client. Headers count only when the peer
// is trusted. X-Forwarded-For is walked from the right and the first hop that
// is not itself a trusted proxy wins.
func (t *ProxyTrust) ClientIP(r *http.Request) string {
	peer := ClientIP(r)
	if !t.Trusted(peer) {
		return peer
	}

	if fwd := r.Header.Values("X-Forwarded-For"); len(fwd) > 0 {
		hops := strings.Split(strings.Join(fwd, ","), ",")
		client := ""
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				break
			}
			client = hop
			if !t.Trusted(hop) {
				return hop
			}
		}
		if client != "" {
			return client
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(realIP) != nil {
		return realIP
	}
	return peer
}
