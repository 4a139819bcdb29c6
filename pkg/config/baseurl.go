package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// PublicBaseURL validates that raw is an absolute HTTPS URL reachable from
// the public internet and returns it without a trailing slash.
//
// The payment processor delivers webhook notifications to an endpoint
// derived from this URL, so a loopback or plain-HTTP deployment can never
// receive them. That makes this a deployment precondition: the process
// refuses to serve billing routes instead of failing silently later.
func PublicBaseURL(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty value", ErrBaseURLInvalid)
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrBaseURLInvalid, raw)
	}

	if u.Scheme != "https" {
		return "", fmt.Errorf("%w: got %q", ErrBaseURLInsecure, u.Scheme)
	}

	if isLoopbackHost(u.Hostname()) {
		return "", fmt.Errorf("%w: %q", ErrBaseURLLoopback, u.Hostname())
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func isLoopbackHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
