package resolver

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/miekg/dns"
)

// DNSResolver resolves names against a real DNS upstream. It queries A and
// AAAA records and merges the answers.
type DNSResolver struct {
	client *dns.Client
	server string
}

// NewDNSResolver creates a resolver talking to the given upstream
// ("host:port", e.g. "1.1.1.1:53").
func NewDNSResolver(server string, timeout time.Duration) *DNSResolver {
	return &DNSResolver{
		client: &dns.Client{Timeout: timeout},
		server: server,
	}
}

// Resolve returns all A and AAAA addresses for the name. It fails with a
// ResolutionError if the upstream is unreachable or the name has no
// addresses.
func (r *DNSResolver) Resolve(ctx context.Context, name string) ([]string, error) {
	var ips []string
	var lastErr error

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(name), qtype)
		m.RecursionDesired = true

		in, _, err := r.client.ExchangeContext(ctx, m, r.server)
		if err != nil {
			lastErr = err
			continue
		}
		for _, rr := range in.Answer {
			switch a := rr.(type) {
			case *dns.A:
				ips = append(ips, a.A.String())
			case *dns.AAAA:
				ips = append(ips, a.AAAA.String())
			}
		}
	}

	if len(ips) == 0 {
		if lastErr == nil {
			lastErr = errors.New("no A or AAAA records")
		}
		return nil, &ResolutionError{Name: name, Cause: lastErr}
	}
	sort.Strings(ips)
	return ips, nil
}
