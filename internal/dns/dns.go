package dns

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// maximum number of reverse lookups in flight
const lookupConcurrency = 8

type Options struct {
	// Server is a host:port pair. The system resolver is used when empty.
	Server         string
	ConnectTimeout time.Duration
	Timeout        time.Duration
	CacheTimeout   time.Duration
}

type cacheEntry struct {
	names   []string
	expires time.Time
}

// Resolver maps source IPs to host names with a PTR lookup. Answers,
// including empty ones, are cached for CacheTimeout.
type Resolver struct {
	ctx      context.Context
	opts     Options
	resolver *net.Resolver
	mu       sync.Mutex
	cache    map[string]cacheEntry
	logger   *log.Logger
}

func NewResolver(ctx context.Context, opts Options, logger *log.Logger) *Resolver {
	resolver := net.DefaultResolver
	if opts.Server != "" {
		resolver = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
				d := net.Dialer{Timeout: opts.ConnectTimeout}
				return d.DialContext(ctx, network, opts.Server)
			},
		}
	}
	return &Resolver{
		ctx:      ctx,
		opts:     opts,
		resolver: resolver,
		cache:    make(map[string]cacheEntry),
		logger:   logger,
	}
}

// Lookup returns the host names of ip without the trailing dot.
func (r *Resolver) Lookup(ip string) ([]string, error) {
	if names, ok := r.cached(ip); ok {
		return names, nil
	}
	r.logger.Debug("resolving", "ip", ip)

	ctx, cancel := context.WithTimeout(r.ctx, r.opts.Timeout)
	defer cancel()

	names, err := r.resolver.LookupAddr(ctx, ip)
	if err != nil {
		// remember the miss so records sharing the ip don't query again
		r.store(ip, nil)
		return nil, err
	}
	for i := range names {
		names[i] = strings.TrimSuffix(names[i], ".")
	}
	r.store(ip, names)
	return names, nil
}

// LookupAll resolves ips concurrently. IPs without a name are left out of the
// result, failed lookups are only logged. It stops early when the resolver
// context is done.
func (r *Resolver) LookupAll(ips []string) map[string][]string {
	var (
		mu  sync.Mutex
		ret = make(map[string][]string, len(ips))
	)

	g, ctx := errgroup.WithContext(r.ctx)
	g.SetLimit(lookupConcurrency)
	for _, ip := range ips {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			names, err := r.Lookup(ip)
			if err != nil {
				r.logger.Warn("could not resolve source ip", "ip", ip, "err", err)
				return nil
			}
			if len(names) == 0 {
				return nil
			}
			mu.Lock()
			ret[ip] = names
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return ret
}

func (r *Resolver) store(ip string, names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[ip] = cacheEntry{
		names:   names,
		expires: time.Now().Add(r.opts.CacheTimeout),
	}
}

func (r *Resolver) cached(ip string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[ip]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		r.logger.Debug("deleting stale DNS entry", "ip", ip, "expired", entry.expires)
		delete(r.cache, ip)
		return nil, false
	}
	return entry.names, true
}
