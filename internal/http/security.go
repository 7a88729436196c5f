package http

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync/atomic"

	"hiace/internal/log"
)

// securityMetrics counts rejected requests.
type securityMetrics struct {
	rateLimitHits      int64
	suspiciousRequests int64
}

// Forwarding headers are honoured only from these networks.
var trustedProxies = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
}

func isTrustedProxy(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// resolveClientIP returns the peer address, or the first forwarded address
// when the peer is a trusted proxy.
func resolveClientIP(remoteAddr string, h http.Header) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !isTrustedProxy(peer) {
		return host
	}

	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(h.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}
	return host
}

type clientIPKey struct{}

// withClientIP resolves the client address once per request.
func withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := resolveClientIP(r.RemoteAddr, r.Header)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPKey{}, ip)))
	})
}

func clientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok {
		return ip
	}
	return resolveClientIP(r.RemoteAddr, r.Header)
}

// probeRule flags requests that no API client sends.
type probeRule struct {
	name  string
	match func(r *http.Request) bool
}

var (
	probePathFragments = []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", "etc/passwd", "cmd.exe",
	}
	probeQueryFragments = []string{
		"eval(", "javascript:", "<script", "union select",
	}
	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "scanner",
	}
)

var probeRules = []probeRule{
	{"path", func(r *http.Request) bool {
		return containsAny(strings.ToLower(r.URL.Path), probePathFragments)
	}},
	{"query", func(r *http.Request) bool {
		q := strings.ToLower(decodedQuery(r.URL.RawQuery))
		return containsAny(q, probePathFragments) || containsAny(q, probeQueryFragments)
	}},
	{"user_agent", func(r *http.Request) bool {
		return containsAny(strings.ToLower(r.UserAgent()), scannerAgents)
	}},
	{"method", func(r *http.Request) bool {
		switch r.Method {
		case "TRACE", "TRACK", "DEBUG", "CONNECT":
			return true
		}
		return false
	}},
	{"url_length", func(r *http.Request) bool {
		return len(r.URL.String()) > 2048
	}},
	{"forwarded_chain", func(r *http.Request) bool {
		return strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5
	}},
}

// decodedQuery unescapes the raw query, falling back to it when malformed.
func decodedQuery(raw string) string {
	if q, err := url.QueryUnescape(raw); err == nil {
		return q
	}
	return raw
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

// probeReason returns the first rule the request trips, or "".
func probeReason(r *http.Request) string {
	for _, rule := range probeRules {
		if rule.match(r) {
			return rule.name
		}
	}
	return ""
}

// withSecurityHeaders sets the response hardening headers and answers probes
// with a plain 404.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		if id := requestID(r); id != "" {
			h.Set("X-Request-ID", id)
		}

		if reason := probeReason(r); reason != "" {
			atomic.AddInt64(&s.metrics.suspiciousRequests, 1)
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldClientIP, clientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"reason", reason)
			NotFoundError("resource").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
