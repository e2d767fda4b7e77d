package probe

import (
	"context"
	"net/http"
	"time"
)

// Unreachable is the status code reported when no HTTP response was received
// at all: timeout, DNS failure, refused connection and so on.
const Unreachable = 0

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 3500 * time.Millisecond

// Prober performs one reachability check and returns the HTTP status code,
// or Unreachable.
type Prober interface {
	Probe(ctx context.Context, target string) int
}

// HTTPProber issues a HEAD request on a fresh connection and reports the
// status code of the first response. Redirects are not followed.
type HTTPProber struct {
	Client *http.Client
}

func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPProber{
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: true,
			},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (p *HTTPProber) Probe(ctx context.Context, target string) int {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return Unreachable
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := p.Client.Do(req)
	if err != nil || resp == nil {
		return Unreachable
	}
	defer resp.Body.Close()
	return resp.StatusCode
}
