package probe

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/netwatch-io/netwatch/internal/model"
)

// icmpPayloadSize is the echo data length: an 8-byte zero payload.
const icmpPayloadSize = 8

// probeICMP sends a single echo request and waits for the reply. Hostnames
// are resolved by the pinger via the system resolver, using the first
// returned address. Raw-socket permission errors come back from Run as an
// ordinary failure.
func probeICMP(ctx context.Context, t model.Target) Result {
	pinger, err := probing.NewPinger(t.Host)
	if err != nil {
		return failure(err.Error())
	}
	pinger.Count = 1
	pinger.Size = icmpPayloadSize
	pinger.Timeout = DefaultTimeout
	pinger.SetPrivileged(true)

	start := time.Now()
	if err := pinger.RunWithContext(ctx); err != nil {
		return failure(err.Error())
	}
	if pinger.Statistics().PacketsRecv == 0 {
		return failure("Timeout")
	}
	return success(msSince(start), "")
}
