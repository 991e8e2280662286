package guidancedesk

import (
	"sync"
	"testing"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.Inc(MetricOTPSent)
	m.Inc(MetricOTPSent)
	m.Add(MetricSweepRemoved, 7)

	if got := m.Get(MetricOTPSent); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := m.Get(MetricSweepRemoved); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := m.Get(MetricLogout); got != 0 {
		t.Fatalf("expected untouched counter to be 0, got %d", got)
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics

	m.Inc(MetricOTPSent)
	m.Add(MetricOTPSent, 5)
	if got := m.Get(MetricOTPSent); got != 0 {
		t.Fatalf("nil metrics must read 0, got %d", got)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.Inc(MetricGuardAccept)
	m.Inc(MetricGuardReject)
	m.Inc(MetricGuardReject)

	snap := m.Snapshot()
	if snap["guard_accept"] != 1 {
		t.Fatalf("expected guard_accept 1, got %d", snap["guard_accept"])
	}
	if snap["guard_reject"] != 2 {
		t.Fatalf("expected guard_reject 2, got %d", snap["guard_reject"])
	}
	if _, ok := snap["otp_sent"]; !ok {
		t.Fatal("snapshot should include every counter")
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				m.Inc(MetricLoginSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Get(MetricLoginSuccess); got != 16000 {
		t.Fatalf("expected 16000, got %d", got)
	}
}
