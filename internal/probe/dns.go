package probe

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/netwatch-io/netwatch/internal/model"
)

// queryName is the fixed well-known name resolved through the target
// resolver. The probe cares about getting an answer, not about the answer.
const queryName = "www.baidu.com."

// probeDNS queries the target as a resolver: host must be an IP literal, the
// exchange runs over UDP against (host, port|53). Success is a non-empty
// answer; the message joins the answer addresses.
func probeDNS(ctx context.Context, t model.Target) Result {
	if net.ParseIP(t.Host) == nil {
		return failure("Invalid DNS Server IP: " + t.Host)
	}
	addr := net.JoinHostPort(t.Host, strconv.Itoa(int(t.PortOr(53))))

	m := new(dns.Msg)
	m.SetQuestion(queryName, dns.TypeA)
	m.RecursionDesired = true

	c := &dns.Client{Net: "udp", Timeout: DefaultTimeout}

	start := time.Now()
	resp, _, err := c.ExchangeContext(ctx, m, addr)
	if err != nil {
		if isTimeout(err) {
			return failure("Timeout")
		}
		return failure(err.Error())
	}

	var ips []string
	for _, rr := range resp.Answer {
		switch a := rr.(type) {
		case *dns.A:
			ips = append(ips, a.A.String())
		case *dns.AAAA:
			ips = append(ips, a.AAAA.String())
		}
	}
	if len(ips) == 0 {
		return failure("no answer from " + addr + ": " + dns.RcodeToString[resp.Rcode])
	}
	return success(msSince(start), strings.Join(ips, ", "))
}
