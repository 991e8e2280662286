package guidancedesk

import "sync/atomic"

// MetricID indexes one counter in the in-process metrics set.
type MetricID int

const (
	MetricOTPSent MetricID = iota
	MetricOTPVerifySuccess
	MetricOTPVerifyFailure
	MetricOTPDeliveryFailure
	MetricOTPDeleted
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginSetupRedirect
	MetricPasswordSetup
	MetricLogout
	MetricGuardAccept
	MetricGuardReject
	MetricSweepRemoved

	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricOTPSent:            "otp_sent",
	MetricOTPVerifySuccess:   "otp_verify_success",
	MetricOTPVerifyFailure:   "otp_verify_failure",
	MetricOTPDeliveryFailure: "otp_delivery_failure",
	MetricOTPDeleted:         "otp_deleted",
	MetricLoginSuccess:       "login_success",
	MetricLoginFailure:       "login_failure",
	MetricLoginSetupRedirect: "login_setup_redirect",
	MetricPasswordSetup:      "password_setup",
	MetricLogout:             "logout",
	MetricGuardAccept:        "guard_accept",
	MetricGuardReject:        "guard_reject",
	MetricSweepRemoved:       "sweep_removed",
}

// Metrics is a fixed set of atomic counters. All operations are lock-free
// and allocation-free on the write path.
type Metrics struct {
	counters [metricIDCount]atomic.Uint64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Inc increments one counter. Safe on a nil receiver so call sites need no
// guards.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id < 0 || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Add increments one counter by n.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || id < 0 || id >= metricIDCount {
		return
	}
	m.counters[id].Add(n)
}

// Get returns the current value of one counter.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || id < 0 || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot returns a point-in-time copy of every counter, keyed by name.
func (m *Metrics) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, metricIDCount)
	for id := MetricID(0); id < metricIDCount; id++ {
		out[metricNames[id]] = m.Get(id)
	}
	return out
}
