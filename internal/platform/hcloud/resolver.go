package hcloud

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hoc/internal/config"
	"github.com/imamik/hoc/internal/executor"
	"github.com/imamik/hoc/internal/metrics"
	"github.com/imamik/hoc/internal/util/retry"
)

// Resolver implements executor.HostResolver for hcloud: references.
type Resolver struct {
	client   *hcloud.Client
	next     executor.HostResolver
	metrics  *metrics.Metrics
	log      logr.Logger
	timeouts *config.Timeouts

	mu    sync.Mutex
	cache map[string]string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) Option {
	return func(r *Resolver) {
		r.client = hc
	}
}

// WithNext resolves aliases before hcloud: references are looked up.
func WithNext(next executor.HostResolver) Option {
	return func(r *Resolver) {
		r.next = next
	}
}

// WithMetrics records API calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// WithTimeouts sets custom retry parameters.
func WithTimeouts(t *config.Timeouts) Option {
	return func(r *Resolver) {
		r.timeouts = t
	}
}

// NewResolver creates a Resolver authenticating with token.
func NewResolver(token string, opts ...Option) *Resolver {
	r := &Resolver{
		client:   hcloud.NewClient(hcloud.WithToken(token), hcloud.WithApplication("hoc", "")),
		log:      logr.Discard(),
		timeouts: config.LoadTimeouts(),
		cache:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveHost implements executor.HostResolver. Hosts without the hcloud:
// prefix are returned unchanged.
func (r *Resolver) ResolveHost(ctx context.Context, host string) (string, error) {
	if r.next != nil {
		resolved, err := r.next.ResolveHost(ctx, host)
		if err != nil {
			return "", err
		}
		host = resolved
	}

	name, ok := strings.CutPrefix(host, config.HCloudPrefix)
	if !ok {
		return host, nil
	}
	if name == "" {
		return "", fmt.Errorf("empty server name in host %q", host)
	}

	r.mu.Lock()
	addr, cached := r.cache[name]
	r.mu.Unlock()
	if cached {
		return addr, nil
	}

	addr, err := r.lookup(ctx, name)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[name] = addr
	r.mu.Unlock()
	r.log.V(1).Info("resolved hcloud server", "server", name, "address", addr)
	return addr, nil
}

func (r *Resolver) lookup(ctx context.Context, name string) (string, error) {
	var server *hcloud.Server
	err := retry.WithExponentialBackoff(ctx, func() error {
		start := time.Now()
		s, _, err := r.client.Server.GetByName(ctx, name)
		r.metrics.ObserveHCloudCall("server.get", err, time.Since(start))
		if err != nil {
			return err
		}
		server = s
		return nil
	},
		retry.WithRetryIf(isRetryable),
		retry.WithMaxRetries(r.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(r.timeouts.RetryInitialDelay),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			r.log.V(1).Info("retrying hcloud lookup", "server", name, "attempt", attempt, "delay", delay, "error", err.Error())
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to get server %s: %w", name, err)
	}
	if server == nil {
		return "", fmt.Errorf("server not found: %s", name)
	}

	if addr := ServerAddress(server); addr != "" {
		return addr, nil
	}
	return "", fmt.Errorf("server %s has no reachable address", name)
}

// ServerAddress returns the address to dial for s: its public IPv4, its
// public IPv6 or its first private IP, in that order.
func ServerAddress(s *hcloud.Server) string {
	if ip := ServerIPv4(s); ip != "" {
		return ip
	}
	if ip := ServerIPv6(s); ip != "" {
		return ip
	}
	return ServerPrivateIP(s)
}

// ServerIPv4 extracts the public IPv4 address from a server, or empty string if not set.
func ServerIPv4(s *hcloud.Server) string {
	if s != nil && s.PublicNet.IPv4.IP != nil && !s.PublicNet.IPv4.IP.IsUnspecified() {
		return s.PublicNet.IPv4.IP.String()
	}
	return ""
}

// ServerIPv6 extracts the public IPv6 address from a server, or empty string
// if not set. The API reports the /64 network; the server holds its ::1.
func ServerIPv6(s *hcloud.Server) string {
	if s == nil || s.PublicNet.IPv6.IP == nil || s.PublicNet.IPv6.IP.IsUnspecified() {
		return ""
	}
	ip := slices.Clone(s.PublicNet.IPv6.IP.To16())
	if ip[len(ip)-1] == 0 {
		ip[len(ip)-1] = 1
	}
	return ip.String()
}

// ServerPrivateIP extracts the IP of the server's first private network.
func ServerPrivateIP(s *hcloud.Server) string {
	if s != nil && len(s.PrivateNet) > 0 && s.PrivateNet[0].IP != nil {
		return s.PrivateNet[0].IP.String()
	}
	return ""
}
