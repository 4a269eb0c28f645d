// Package auth gates submissions with a shared-secret API key check and
// same-origin leniency: requests from the configured site origin skip
// the key check, cross-origin requests must present the key.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"

	"github.com/proposalforge/proposal-gateway/internal/domain"
)

// Gate validates request provenance before any other work.
type Gate struct {
	apiKeyHash []byte
	siteOrigin string
}

// NewGate creates a gate. An empty apiKey disables the key check; an
// empty siteOrigin disables the same-origin shortcut.
func NewGate(apiKey, siteOrigin string) *Gate {
	g := &Gate{siteOrigin: strings.TrimSuffix(siteOrigin, "/")}
	if apiKey != "" {
		sum := sha256.Sum256([]byte(apiKey))
		g.apiKeyHash = sum[:]
	}
	return g
}

// Check validates the request. It returns nil when the request may
// proceed, or a domain error carrying the 401/403 classification.
func (g *Gate) Check(r *http.Request) *domain.APIError {
	if g.sameOrigin(r) {
		return nil
	}

	// Cross-origin (or origin unknown): require the shared secret.
	if g.apiKeyHash == nil {
		if g.siteOrigin != "" && originOf(r) != "" {
			return domain.ErrPermission("origin not allowed")
		}
		return nil
	}

	key := r.Header.Get("X-API-Key")
	if key == "" {
		return domain.ErrAuthentication("missing API key")
	}

	sum := sha256.Sum256([]byte(key))
	if subtle.ConstantTimeCompare(sum[:], g.apiKeyHash) != 1 {
		return domain.ErrAuthentication("invalid API key")
	}

	return nil
}

// sameOrigin reports whether the request plausibly came from the
// configured site itself, via Origin, Referer, or Host.
func (g *Gate) sameOrigin(r *http.Request) bool {
	if g.siteOrigin == "" {
		return false
	}

	if o := originOf(r); o != "" {
		return o == g.siteOrigin
	}

	// No Origin/Referer at all: lenient when the Host header matches the
	// configured origin's host (same-site form posts and curl checks).
	if u, err := url.Parse(g.siteOrigin); err == nil && u.Host != "" {
		return r.Host == u.Host
	}
	return false
}

// originOf extracts the request's claimed origin from the Origin header,
// falling back to the Referer's scheme://host.
func originOf(r *http.Request) string {
	if o := r.Header.Get("Origin"); o != "" {
		return strings.TrimSuffix(o, "/")
	}
	if ref := r.Header.Get("Referer"); ref != "" {
		if u, err := url.Parse(ref); err == nil && u.Scheme != "" && u.Host != "" {
			return u.Scheme + "://" + u.Host
		}
	}
	return ""
}
