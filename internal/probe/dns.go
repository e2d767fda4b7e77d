package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DNS classes reported by CheckDNS.
const (
	DNSResolves    = "RESOLVES"
	DNSNoARecord   = "NO_A_RECORD"
	DNSNXDomain    = "NXDOMAIN"
	DNSServFail    = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName = "INVALID_NAME"
)

const dnsTimeout = 3 * time.Second

// DNSStatus explains why a site may be unreachable. It is only logged and
// never changes a site's status.
type DNSStatus struct {
	Domain      string
	Class       string
	Nameservers []string // set for NO_A_RECORD
	Err         string
}

// Resolver is the part of *net.Resolver CheckDNS uses.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

// Diagnose runs CheckDNS against the host part of a site URL.
func Diagnose(ctx context.Context, r Resolver, rawURL string) DNSStatus {
	return CheckDNS(ctx, r, hostOf(rawURL))
}

// CheckDNS classifies domain. An address lookup answers most cases; the
// NS lookup only runs when there is no address, to tell a delegated zone
// without A/AAAA records from a name that does not exist.
func CheckDNS(ctx context.Context, r Resolver, domain string) DNSStatus {
	st := DNSStatus{Domain: strings.TrimSpace(domain)}
	if st.Domain == "" || strings.Contains(st.Domain, "://") {
		st.Class = DNSInvalidName
		return st
	}
	if r == nil {
		r = net.DefaultResolver
	}
	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	ips, err := r.LookupIP(ctx, "ip", st.Domain)
	if err == nil && len(ips) > 0 {
		st.Class = DNSResolves
		return st
	}
	if err != nil {
		st.Err = err.Error()
	}

	if ns, nsErr := r.LookupNS(ctx, st.Domain); nsErr == nil && len(ns) > 0 {
		for _, n := range ns {
			st.Nameservers = append(st.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		st.Class = DNSNoARecord
		return st
	}
	st.Class = lookupClass(err)
	return st
}

func lookupClass(err error) string {
	var de *net.DNSError
	switch {
	case err == nil, errors.As(err, &de) && de.IsNotFound:
		return DNSNXDomain
	default:
		return DNSServFail
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
