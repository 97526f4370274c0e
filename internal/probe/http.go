package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/netwatch-io/netwatch/internal/model"
)

// userAgent identifies NetWatch probes in target access logs.
const userAgent = "netwatch/1.0"

// httpClient is the process-wide pooled client shared by all HTTP(S) probes.
// Invalid certificates are accepted on purpose: reachability monitoring must
// work against self-signed endpoints. Compression is disabled because only
// the status line matters.
var httpClient = &http.Client{
	Timeout: HTTPTimeout,
	Transport: &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		DisableCompression:  true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// probeHTTP issues a GET against the target URL. Success is any 2xx status.
func probeHTTP(ctx context.Context, t model.Target) Result {
	url := buildURL(t)

	ctx, cancel := context.WithTimeout(ctx, HTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return failure(err.Error())
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return failure(err.Error())
	}
	latency := msSince(start)
	// Drain a little so the pooled connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return success(latency, "Status: "+resp.Status)
	}
	return failure("HTTP Error: " + resp.Status)
}

// buildURL derives the probe URL: scheme://host[:port], https for the HTTPS
// protocol, the host used verbatim when it already embeds a scheme.
func buildURL(t model.Target) string {
	if strings.Contains(t.Host, "://") {
		return t.Host
	}
	scheme := "http"
	if t.Protocol == model.ProtocolHTTPS {
		scheme = "https"
	}
	if t.Port != nil {
		return fmt.Sprintf("%s://%s:%s", scheme, t.Host, strconv.Itoa(int(*t.Port)))
	}
	return scheme + "://" + t.Host
}
