package git

import (
	"context"
	"strings"
	"sync"
	"time"
)

// CachedRunner wraps a Runner with a TTL cache for branch, remote and log
// listings. Any other command that succeeds flushes the cache so the next
// read is fresh. Status and diff are never cached: both read the working
// tree, which changes without any git command running. A status run also
// flushes, since it is how outside changes get noticed.
//
// The cache is bounded by maxCacheEntries to prevent unbounded memory
// growth across long-running sessions.
type CachedRunner struct {
	inner Runner
	ttl   time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// maxCacheEntries caps the number of entries in the cache. When exceeded
// after evicting expired entries, the cache is flushed.
const maxCacheEntries = 64

type cacheEntry struct {
	out    string
	expiry time.Time
}

// Compile-time check.
var _ Runner = (*CachedRunner)(nil)

// NewCachedRunner wraps inner with a TTL cache.
func NewCachedRunner(inner Runner, ttl time.Duration) *CachedRunner {
	return &CachedRunner{
		inner: inner,
		ttl:   ttl,
		cache: make(map[string]cacheEntry, 16),
	}
}

// Invalidate clears all cached entries.
func (c *CachedRunner) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string]cacheEntry, 16)
	c.mu.Unlock()
}

// Execute serves cacheable reads from the cache and delegates the rest.
func (c *CachedRunner) Execute(ctx context.Context, workspaceID, dir string, argv []string) (string, error) {
	if !cacheable(argv) || c.ttl <= 0 {
		out, err := c.inner.Execute(ctx, workspaceID, dir, argv)
		if err == nil && !keepsCache(argv) {
			c.Invalidate()
		}
		return out, err
	}

	key := workspaceID + "\x00" + dir + "\x00" + strings.Join(argv, "\x00")
	if out, ok := c.get(key); ok {
		return out, nil
	}
	out, err := c.inner.Execute(ctx, workspaceID, dir, argv)
	if err != nil {
		return "", err
	}
	c.set(key, out)
	return out, nil
}

func (c *CachedRunner) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.cache[key]
	if !found || time.Now().After(e.expiry) {
		return "", false
	}
	return e.out, true
}

func (c *CachedRunner) set(key, out string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cache) >= maxCacheEntries {
		now := time.Now()
		for k, e := range c.cache {
			if now.After(e.expiry) {
				delete(c.cache, k)
			}
		}
		if len(c.cache) >= maxCacheEntries {
			c.cache = make(map[string]cacheEntry, 16)
		}
	}
	c.cache[key] = cacheEntry{out: out, expiry: time.Now().Add(c.ttl)}
}

// cacheable reports whether argv is a read whose result may be reused.
func cacheable(argv []string) bool {
	if len(argv) == 0 {
		return false
	}
	switch argv[0] {
	case "log":
		return true
	case "branch":
		return isBranchListing(argv[1:])
	case "remote":
		return len(argv) == 2 && argv[1] == "-v"
	default:
		return false
	}
}

// keepsCache reports whether a successful argv leaves cached listings valid.
func keepsCache(argv []string) bool {
	if len(argv) == 0 {
		return true
	}
	return argv[0] == "diff" || cacheable(argv)
}

// isBranchListing reports whether the branch arguments only list branches.
func isBranchListing(args []string) bool {
	for _, a := range args {
		switch a {
		case "--no-color", "-r", "-a", "--list":
		default:
			return false
		}
	}
	return true
}
