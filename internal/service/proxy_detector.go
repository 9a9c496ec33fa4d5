package service

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/nannkadayo/site-verify-discord-bot/internal/observability"
)

// Verdict is the proxy detector's answer. Reasons lists every signal
// that contributed; empty means clean.
type Verdict struct {
	Suspicious bool
	Reasons    []string
}

// HostResolver is the reverse-DNS dependency, injectable for tests.
type HostResolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

var suspiciousHostnameMarkers = []string{"proxy", "vpn", "tor"}

// ProxyDetector flags requests that show relay indicators: any
// forwarding header at all, or a reverse-DNS hostname naming a known
// relay service. It never fails a request; resolution errors and
// unparseable addresses produce a clean verdict.
type ProxyDetector struct {
	resolver   HostResolver
	dnsTimeout time.Duration
	logger     *slog.Logger
}

func NewProxyDetector(resolver HostResolver, dnsTimeout time.Duration, logger *slog.Logger) *ProxyDetector {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if dnsTimeout <= 0 {
		dnsTimeout = 2 * time.Second
	}
	return &ProxyDetector{resolver: resolver, dnsTimeout: dnsTimeout, logger: logger}
}

func (d *ProxyDetector) Classify(ctx context.Context, remoteAddr string, headers http.Header) Verdict {
	ip := candidateIP(remoteAddr, headers)

	// Only plain IPv4 is judged. IPv6 and malformed input get a free
	// pass; the analyzer declines rather than guesses.
	if !isIPv4(ip) {
		observability.RecordProxyVerdict(ctx, false)
		return Verdict{}
	}

	var reasons []string
	for _, name := range []string{"X-Forwarded-For", "Via", "Forwarded"} {
		if headers.Get(name) != "" {
			reasons = append(reasons, name+" header present")
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, d.dnsTimeout)
	defer cancel()
	hostnames, err := d.resolver.LookupAddr(lookupCtx, ip)
	if err != nil {
		// Resolution failure is not evidence either way.
		if d.logger != nil {
			d.logger.DebugContext(ctx, "reverse dns lookup failed", "ip", ip, "error", err.Error())
		}
	}
	for _, hostname := range hostnames {
		for _, marker := range suspiciousHostnameMarkers {
			if strings.Contains(hostname, marker) {
				reasons = append(reasons, "hostname "+hostname+" matches "+marker)
				break
			}
		}
	}

	verdict := Verdict{Suspicious: len(reasons) > 0, Reasons: reasons}
	observability.RecordProxyVerdict(ctx, verdict.Suspicious)
	return verdict
}

// candidateIP picks the first forwarded-for entry when present and
// falls back to the transport peer.
func candidateIP(remoteAddr string, headers http.Header) string {
	if fwd := headers.Get("X-Forwarded-For"); fwd != "" {
		first := fwd
		if i := strings.Index(fwd, ","); i >= 0 {
			first = fwd[:i]
		}
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil || host == "" {
		return strings.TrimSpace(remoteAddr)
	}
	return host
}

func isIPv4(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	return err == nil && addr.Is4()
}
