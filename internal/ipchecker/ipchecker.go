// Package ipchecker resolves the client IP address of an HTTP request.
// Forwarding headers are honoured only when the direct peer belongs to a
// trusted proxy subnet; otherwise any client could pick its own rate-limit key.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// IPChecker extracts a client's IP address from an HTTP request.
type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New creates a new IPChecker trusting proxies inside trustedSubnet.
// If trustedSubnet is an empty string no proxy is trusted and the
// connection's remote address is always used.
//
// The trustedSubnet must be in CIDR notation (e.g., "10.0.0.0/8").
func New(trustedSubnet string) (*IPChecker, error) {
	if trustedSubnet == "" {
		return &IPChecker{
			trustedSubnet: nil,
		}, nil
	}
	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `net.ParseCIDR()` calling: %w", err)
	}
	return &IPChecker{
		trustedSubnet: allowedNet,
	}, nil
}

// Check reports whether clientIP belongs to the trusted proxy subnet.
func (checker *IPChecker) Check(clientIP net.IP) bool {
	return checker.trustedSubnet != nil && clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// GetClientIP returns the address the request is attributed to. When the
// peer is a trusted proxy, X-Forwarded-For is walked from the right and the
// first address outside the trusted subnet wins, then X-Real-IP is tried.
func (checker *IPChecker) GetClientIP(request *http.Request) (net.IP, error) {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		host = request.RemoteAddr
	}
	peer := net.ParseIP(host)
	if peer == nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/GetClientIP(): cannot parse remote address %q", request.RemoteAddr)
	}

	if !checker.Check(peer) {
		return peer, nil
	}

	if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := net.ParseIP(strings.TrimSpace(hops[i]))
			if hop == nil {
				break
			}
			if !checker.Check(hop) {
				return hop, nil
			}
		}
	}

	if ip := net.ParseIP(strings.TrimSpace(request.Header.Get("X-Real-IP"))); ip != nil {
		return ip, nil
	}

	return peer, nil
}

// ClientIPString is GetClientIP for callers that only need a key; it falls
// back to the raw remote address when that cannot be parsed.
func (checker *IPChecker) ClientIPString(request *http.Request) string {
	ip, err := checker.GetClientIP(request)
	if err != nil {
		return request.RemoteAddr
	}

	return ip.String()
}

// IsTrustedSubnetEmpty returns true if the IPChecker was initialized
// without a trusted subnet.
func (checker *IPChecker) IsTrustedSubnetEmpty() bool {
	return checker.trustedSubnet == nil
}
