package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Headers checked in priority order before falling back to RemoteAddr.
const (
	HeaderCFConnectingIP = "CF-Connecting-IP"
	HeaderDOConnectingIP = "DO-Connecting-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderXRealIP        = "X-Real-IP"
)

var singleValueHeaders = []string{HeaderCFConnectingIP, HeaderDOConnectingIP}

// GetIP returns the normalized client address of r.
// When no valid address is found it returns the raw RemoteAddr.
func GetIP(r *http.Request) string {
	for _, h := range singleValueHeaders {
		if ip, ok := Normalize(r.Header.Get(h)); ok {
			return ip
		}
	}

	// Leftmost hop is the original client.
	if xff := r.Header.Get(HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, ok := Normalize(first); ok {
			return ip
		}
	}

	if ip, ok := Normalize(r.Header.Get(HeaderXRealIP)); ok {
		return ip
	}

	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	if ip, ok := Normalize(host); ok {
		return ip
	}
	return r.RemoteAddr
}

// Normalize parses s as an IP address and returns its canonical form.
// IPv4-mapped IPv6 addresses are reduced to IPv4 and zones are dropped.
func Normalize(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return "", false
	}
	addr = addr.Unmap().WithZone("")
	if addr.IsUnspecified() {
		return "", false
	}
	return addr.String(), true
}
