package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

type stubResolver struct {
	hostnames []string
	err       error
	lastAddr  string
}

func (s *stubResolver) LookupAddr(_ context.Context, addr string) ([]string, error) {
	s.lastAddr = addr
	return s.hostnames, s.err
}

func newDetectorForTest(resolver HostResolver) *ProxyDetector {
	return NewProxyDetector(resolver, 50*time.Millisecond, testLogger())
}

func TestClassifyForwardedHeaderAloneIsSuspicious(t *testing.T) {
	resolver := &stubResolver{}
	detector := newDetectorForTest(resolver)

	headers := http.Header{}
	headers.Set("X-Forwarded-For", "203.0.113.9")
	verdict := detector.Classify(context.Background(), "192.0.2.1:40000", headers)
	if !verdict.Suspicious {
		t.Fatalf("expected suspicious verdict, got %+v", verdict)
	}
	if len(verdict.Reasons) == 0 || !strings.Contains(verdict.Reasons[0], "X-Forwarded-For") {
		t.Fatalf("expected header reason, got %v", verdict.Reasons)
	}
	if resolver.lastAddr != "203.0.113.9" {
		t.Fatalf("expected forwarded IP to be resolved, got %q", resolver.lastAddr)
	}
}

func TestClassifyViaAndForwardedHeaders(t *testing.T) {
	detector := newDetectorForTest(&stubResolver{})

	headers := http.Header{}
	headers.Set("Via", "1.1 cache-proxy-7")
	headers.Set("Forwarded", "for=203.0.113.9")
	verdict := detector.Classify(context.Background(), "192.0.2.1:40000", headers)
	if !verdict.Suspicious {
		t.Fatalf("expected suspicious verdict, got %+v", verdict)
	}
	if len(verdict.Reasons) != 2 {
		t.Fatalf("expected two header reasons, got %v", verdict.Reasons)
	}
}

func TestClassifySuspiciousHostname(t *testing.T) {
	resolver := &stubResolver{hostnames: []string{"edge-12.vpn.example.net."}}
	detector := newDetectorForTest(resolver)

	verdict := detector.Classify(context.Background(), "192.0.2.1:40000", http.Header{})
	if !verdict.Suspicious {
		t.Fatalf("expected hostname signal, got %+v", verdict)
	}
}

func TestClassifyHostnameMatchIsCaseSensitive(t *testing.T) {
	resolver := &stubResolver{hostnames: []string{"edge-12.VPN.example.net."}}
	detector := newDetectorForTest(resolver)

	verdict := detector.Classify(context.Background(), "192.0.2.1:40000", http.Header{})
	if verdict.Suspicious {
		t.Fatalf("uppercase marker must not match, got %+v", verdict)
	}
}

func TestClassifyInvalidIPv4DeclinesToJudge(t *testing.T) {
	detector := newDetectorForTest(&stubResolver{hostnames: []string{"tor-exit.example.net."}})

	headers := http.Header{}
	headers.Set("X-Forwarded-For", "256.1.1.1")
	headers.Set("Via", "1.1 relay")
	verdict := detector.Classify(context.Background(), "not-an-address", headers)
	if verdict.Suspicious {
		t.Fatalf("malformed IP must yield clean verdict, got %+v", verdict)
	}
	if len(verdict.Reasons) != 0 {
		t.Fatalf("expected no reasons for malformed IP, got %v", verdict.Reasons)
	}
}

func TestClassifyIPv6DeclinesToJudge(t *testing.T) {
	detector := newDetectorForTest(&stubResolver{hostnames: []string{"proxy.example.net."}})

	verdict := detector.Classify(context.Background(), "[2001:db8::1]:443", http.Header{})
	if verdict.Suspicious {
		t.Fatalf("IPv6 peer must yield clean verdict, got %+v", verdict)
	}
}

func TestClassifyResolutionFailureIsSwallowed(t *testing.T) {
	resolver := &stubResolver{err: errors.New("no ptr record")}
	detector := newDetectorForTest(resolver)

	verdict := detector.Classify(context.Background(), "192.0.2.1:40000", http.Header{})
	if verdict.Suspicious {
		t.Fatalf("lookup failure is not a signal, got %+v", verdict)
	}
}
