package probe

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/netwatch-io/netwatch/internal/model"
)

// probeTCP attempts a full TCP handshake against host:port. The connection is
// closed immediately on success; only reachability is measured.
func probeTCP(ctx context.Context, t model.Target) Result {
	addr := net.JoinHostPort(t.Host, strconv.Itoa(int(t.PortOr(80))))

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	var d net.Dialer
	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		if isTimeout(err) {
			return failure("Timeout")
		}
		return failure(err.Error())
	}
	latency := msSince(start)
	_ = conn.Close()
	return success(latency, "")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
