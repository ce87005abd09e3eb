package domain

// Status is the outcome class of a single probe.
type Status string

const (
	StatusOK       Status = "OK"
	StatusDegraded Status = "DEGRADED"
	StatusFailed   Status = "FAILED"
	StatusUnknown  Status = "UNKNOWN"
)

// ProbeName identifies one check in the battery.
type ProbeName string

const (
	ProbeReachability    ProbeName = "reachability"
	ProbeAPI             ProbeName = "api"
	ProbeFederation      ProbeName = "federation"
	ProbeTimeline        ProbeName = "timeline"
	ProbeStreaming       ProbeName = "streaming"
	ProbeMedia           ProbeName = "media"
	ProbeSecurityHeaders ProbeName = "security_headers"
	ProbeRateLimiting    ProbeName = "rate_limiting"
)

// BatteryOrder is the fixed execution order. Reachability comes first because
// it gates everything behind it.
var BatteryOrder = []ProbeName{
	ProbeReachability,
	ProbeAPI,
	ProbeFederation,
	ProbeTimeline,
	ProbeStreaming,
	ProbeMedia,
	ProbeSecurityHeaders,
	ProbeRateLimiting,
}

// Failure kinds recorded in ProbeResult.Detail. Tests assert on these, so
// treat them as a stable vocabulary.
const (
	DetailTimeout            = "timeout"
	DetailConnectionRefused  = "connection-refused"
	DetailDNSFailure         = "dns-failure"
	DetailTLSFailure         = "tls-failure"
	DetailNetworkError       = "network-error"
	DetailTooManyRedirects   = "too-many-redirects"
	DetailMalformedResponse  = "malformed-response"
	DetailSkippedUnreachable = "skipped: unreachable"
	DetailInsecureTransport  = "insecure-transport"
)

// ProbeResult is the outcome of a single probe. Immutable once produced.
//
// LatencyMS is set only for timing-sensitive probes; nil means the probe does
// not measure latency (or never got far enough to). Fields carries the tagged
// extraction of loose response payloads (version strings, header presence),
// so callers never touch raw JSON.
type ProbeResult struct {
	Name      ProbeName         `json:"name"`
	Status    Status            `json:"status"`
	LatencyMS *float64          `json:"latency_ms,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}
