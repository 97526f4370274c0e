package probe

import (
	"context"
	"time"

	"github.com/netwatch-io/netwatch/internal/model"
)

// Timeouts bounding a single probe. The HTTP timeout is wider because a TLS
// handshake against a distant or throttled endpoint can exceed 3 s without
// the target being down.
const (
	DefaultTimeout = 3 * time.Second
	HTTPTimeout    = 10 * time.Second
)

// Result is the outcome of one probe. LatencyMS is set iff Success; Message
// carries resolved addresses, the HTTP status, or the failure text.
type Result struct {
	Success   bool
	LatencyMS *float64
	Message   *string
}

func success(latencyMS float64, message string) Result {
	r := Result{Success: true, LatencyMS: &latencyMS}
	if message != "" {
		r.Message = &message
	}
	return r
}

func failure(message string) Result {
	return Result{Message: &message}
}

// Driver probes one target. Implementations must respect ctx and never block
// beyond their protocol's timeout.
type Driver func(ctx context.Context, t model.Target) Result

// drivers maps each protocol variant to its driver.
var drivers = map[model.Protocol]Driver{
	model.ProtocolTCP:   probeTCP,
	model.ProtocolICMP:  probeICMP,
	model.ProtocolDNS:   probeDNS,
	model.ProtocolHTTP:  probeHTTP,
	model.ProtocolHTTPS: probeHTTP,
}

// Run executes the driver for the target's protocol. An unknown protocol
// (possible only if a config bypassed validation) reports a failed probe.
func Run(ctx context.Context, t model.Target) Result {
	d, ok := drivers[t.Protocol]
	if !ok {
		return failure("unknown protocol: " + string(t.Protocol))
	}
	return d(ctx, t)
}

// msSince returns elapsed milliseconds with sub-millisecond precision.
func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
