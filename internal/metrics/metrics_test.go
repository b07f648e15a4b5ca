package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistered(t *testing.T) {
	// promauto registers with the default registry at package init, so it
	// is enough to write a value through each collector and read it back.

	PacketsReceived.WithLabelValues("DISCOVER").Inc()
	PacketDecodeErrors.Inc()
	Detections.WithLabelValues("MAC/Fingerprint lookup").Inc()
	SMBProbes.WithLabelValues("success").Inc()
	ProbeCacheHits.Inc()
	ProbeCacheMisses.Inc()
	StoreInserts.WithLabelValues("ok").Inc()
	RequestLogErrors.Inc()
	HubPublished.Inc()
	HubDropped.Inc()
	WebsocketClients.Set(5)
	APIRequests.WithLabelValues("GET", "/api/stats", "200").Inc()
	ServerStartTime.SetToCurrentTime()
	ServerInfo.WithLabelValues("dev").Set(1)

	if got := testutil.ToFloat64(WebsocketClients); got != 5 {
		t.Errorf("WebsocketClients = %v, want 5", got)
	}
	if got := testutil.ToFloat64(PacketDecodeErrors); got != 1 {
		t.Errorf("PacketDecodeErrors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ProbeCacheHits); got != 1 {
		t.Errorf("ProbeCacheHits = %v, want 1", got)
	}
}

func TestMetricsNamespace(t *testing.T) {
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	for _, mf := range mfs {
		name := mf.GetName()
		// Skip standard go_*, process_*, and promhttp_* metrics
		if strings.HasPrefix(name, "go_") ||
			strings.HasPrefix(name, "process_") ||
			strings.HasPrefix(name, "promhttp_") {
			continue
		}
		if !strings.HasPrefix(name, "dhcpwatch_") {
			t.Errorf("metric %q does not have dhcpwatch_ prefix", name)
		}
	}
}
