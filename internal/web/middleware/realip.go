package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// proxyList is the set of networks whose forwarding headers are believed.
type proxyList []*net.IPNet

// parseProxies accepts CIDRs or bare addresses; invalid entries are logged
// and skipped.
func parseProxies(entries []string) proxyList {
	var nets proxyList
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, network, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, network)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			slog.Warn("realip: invalid trusted proxy, skipping", "proxy", entry)
			continue
		}
		bits := 128
		if ip.To4() != nil {
			ip, bits = ip.To4(), 32
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

func (p proxyList) trusts(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, network := range p {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP returns the forwarded client address when the connection comes
// from a trusted proxy, or "" to keep RemoteAddr.
func (p proxyList) clientIP(r *http.Request) string {
	if !p.trusts(extractIP(r.RemoteAddr)) {
		return ""
	}
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		if ip := net.ParseIP(rip); ip != nil {
			return ip.String()
		}
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return ""
}

// TrustedRealIP rewrites RemoteAddr from X-Real-IP or X-Forwarded-For, but
// only for connections from a trusted proxy, so clients cannot spoof their
// address to dodge rate limiting or pollute check history.
func TrustedRealIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	proxies := parseProxies(trustedCIDRs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := proxies.clientIP(r); ip != "" {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractIP parses an IP address from a host:port string or plain IP.
func extractIP(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}

// ClientIP returns the address part of r.RemoteAddr.
func ClientIP(r *http.Request) string {
	if ip := extractIP(r.RemoteAddr); ip != nil {
		return ip.String()
	}
	return r.RemoteAddr
}
