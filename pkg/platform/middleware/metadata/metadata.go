package metadata

import (
	"net/http"
	"net/netip"
	"strings"

	"edgeguard/pkg/requestcontext"
)

// MaxXFFHeaderLength caps the X-Forwarded-For header we are willing to parse.
const MaxXFFHeaderLength = 500

// UnknownClient is the key used when neither the forwarded chain nor the
// transport peer yields an address.
const UnknownClient = "unknown"

// Config holds configuration for the metadata middleware.
type Config struct {
	// TrustedProxies restricts which peers may set X-Forwarded-For. When empty,
	// the first forwarded hop is honoured from any peer. That signal is
	// forgeable; deployments that terminate forwarding at a known boundary
	// should list it here.
	TrustedProxies []netip.Prefix
}

// DefaultConfig returns a Config that honours X-Forwarded-For from any peer.
func DefaultConfig() *Config {
	return &Config{}
}

// Middleware resolves the client key for every request.
type Middleware struct {
	config *Config
}

// NewMiddleware creates a new metadata middleware with the given config.
func NewMiddleware(cfg *Config) *Middleware {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Middleware{config: cfg}
}

// Handler resolves the client key and User-Agent and stores them in the context.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), m.ClientKey(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientKey returns the first forwarded hop when it may be trusted and parses
// as an address, otherwise the transport peer address.
func (m *Middleware) ClientKey(r *http.Request) string {
	remoteIP := parseRemoteAddr(r.RemoteAddr)

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" || len(xff) > MaxXFFHeaderLength || !m.mayForward(remoteIP) {
		return orUnknown(remoteIP)
	}

	first, _, _ := strings.Cut(xff, ",")
	first = strings.TrimSpace(first)

	addr, err := netip.ParseAddr(first)
	if err != nil {
		return orUnknown(remoteIP)
	}
	return addr.Unmap().String()
}

// mayForward reports whether the peer may speak for the client.
func (m *Middleware) mayForward(peer string) bool {
	if len(m.config.TrustedProxies) == 0 {
		return true
	}

	addr, err := netip.ParseAddr(peer)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func orUnknown(ip string) string {
	if ip == "" {
		return UnknownClient
	}
	return ip
}

// parseRemoteAddr extracts the IP from RemoteAddr (strips port).
func parseRemoteAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}

	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr().Unmap().String()
	}

	// Handle IPv6 with brackets: [::1]:port
	if strings.HasPrefix(remoteAddr, "[") {
		if idx := strings.LastIndex(remoteAddr, "]:"); idx != -1 {
			return remoteAddr[1:idx]
		}
		return strings.Trim(remoteAddr, "[]")
	}

	if addr, err := netip.ParseAddr(remoteAddr); err == nil {
		return addr.Unmap().String()
	}

	// Handle host:port
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		return remoteAddr[:idx]
	}

	return remoteAddr
}
