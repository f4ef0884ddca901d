// Package hostname canonicalizes referring-domain hosts and matches them against domain patterns.
package hostname

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Canonical lowercases a host, strips any scheme, port, path, and trailing dot,
// and removes a leading "www." so that host variants collapse to one key.
func Canonical(raw string) string {
	h := strings.ToLower(strings.TrimSpace(raw))
	if h == "" {
		return ""
	}
	if strings.Contains(h, "://") {
		if u, err := url.Parse(h); err == nil && u.Host != "" {
			h = u.Host
		}
	}
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	if i := strings.LastIndexByte(h, ':'); i >= 0 && !strings.Contains(h[i+1:], ".") {
		h = h[:i]
	}
	h = strings.TrimSuffix(h, ".")
	for strings.HasPrefix(h, "www.") {
		h = strings.TrimPrefix(h, "www.")
	}
	return h
}

// Registrable returns the eTLD+1 for a host, e.g. "shop.acme.com.au" -> "acme.com.au".
// Hosts that are themselves public suffixes, or unparseable, are returned canonicalized.
func Registrable(raw string) string {
	h := Canonical(raw)
	if h == "" {
		return ""
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(h)
	if err != nil {
		return h
	}
	return etld1
}

// MatchesSuffix reports whether host equals pattern or is a subdomain of it.
// A pattern starting with "*." is treated the same as the bare pattern.
func MatchesSuffix(host, pattern string) bool {
	host = Canonical(host)
	pattern = Canonical(strings.TrimPrefix(strings.TrimSpace(pattern), "*."))
	if host == "" || pattern == "" {
		return false
	}
	if host == pattern {
		return true
	}
	if !strings.HasSuffix(host, pattern) {
		return false
	}
	return host[len(host)-len(pattern)-1] == '.'
}
