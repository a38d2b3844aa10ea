package arc

import (
	"bytes"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	downloadCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arc_download_cache_hits_total",
		Help: "Downloads served from the in-memory payload cache.",
	})
	downloadCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arc_download_cache_misses_total",
		Help: "Downloads that had to be read from the database.",
	})
)

// DownloadCache keeps recently downloaded payloads in memory.
// A record's filename and payload never change after insert, so entries
// are only evicted by size or age, never invalidated.
type DownloadCache struct {
	cache    *expirable.LRU[int64, *Download]
	maxBytes int64
}

// NewDownloadCache creates a cache holding up to entries payloads for ttl.
// Payloads larger than maxBytes are never cached.
func NewDownloadCache(entries int, maxBytes int64, ttl time.Duration) *DownloadCache {
	return &DownloadCache{
		cache:    expirable.NewLRU[int64, *Download](entries, nil, ttl),
		maxBytes: maxBytes,
	}
}

// Get returns the cached download for id, if present.
// The result is shared with later hits and must not be modified.
func (c *DownloadCache) Get(id int64) (*Download, bool) {
	d, ok := c.cache.Get(id)
	if ok {
		downloadCacheHits.Inc()
		return d, true
	}
	downloadCacheMisses.Inc()
	return nil, false
}

// Add stores a copy of d unless it is over the size limit.
func (c *DownloadCache) Add(id int64, d *Download) {
	if int64(len(d.Data)) > c.maxBytes {
		return
	}
	c.cache.Add(id, &Download{Filename: d.Filename, Data: bytes.Clone(d.Data)})
}

// Len returns the number of cached payloads.
func (c *DownloadCache) Len() int {
	return c.cache.Len()
}
