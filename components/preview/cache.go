package preview

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// ChartKey identifies one rendered chart: the translated grammar and the
// theme it was drawn with.
type ChartKey struct {
	Type  string
	Theme string
	Hash  string
}

// KeyFor returns the key of spec drawn with theme. Equal specs share a hash
// whatever produced them. Specs that cannot be encoded get an empty hash and
// are never cached.
func KeyFor(spec ChartSpec, theme string) ChartKey {
	key := ChartKey{Type: spec.Type, Theme: theme}
	if b, err := json.Marshal(spec); err == nil {
		sum := sha1.Sum(b)
		key.Hash = hex.EncodeToString(sum[:])
	}
	return key
}

func (k ChartKey) String() string {
	return k.Type + ":" + k.Theme + ":" + k.Hash
}

// RenderCache memoizes rendered chart markup.
type RenderCache interface {
	GetOrRender(key ChartKey, render func() (string, error)) (string, error)
}

// ChartCache keeps rendered chart markup for a TTL. Expired charts are swept
// whenever a new one is stored, so edits to a grammar do not pile up.
type ChartCache struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	charts map[ChartKey]renderedChart
}

type renderedChart struct {
	html    string
	expires time.Time
}

// NewChartCache builds a cache with the provided TTL. A non-positive TTL
// disables caching.
func NewChartCache(ttl time.Duration) *ChartCache {
	return &ChartCache{
		ttl:    ttl,
		now:    time.Now,
		charts: make(map[ChartKey]renderedChart),
	}
}

// GetOrRender returns the cached markup for key or renders and stores it.
// Failed renders are never cached.
func (c *ChartCache) GetOrRender(key ChartKey, render func() (string, error)) (string, error) {
	if key.Hash == "" {
		return render()
	}
	if html, ok := c.get(key); ok {
		return html, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.store(key, html)
	return html, nil
}

// Len returns the number of stored charts, expired ones included until the
// next sweep.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.charts)
}

func (c *ChartCache) get(key ChartKey) (string, bool) {
	if c == nil || c.ttl <= 0 {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	chart, ok := c.charts[key]
	if !ok {
		return "", false
	}
	if c.now().After(chart.expires) {
		delete(c.charts, key)
		return "", false
	}
	return chart.html, true
}

func (c *ChartCache) store(key ChartKey, html string) {
	if c == nil || c.ttl <= 0 {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, chart := range c.charts {
		if now.After(chart.expires) {
			delete(c.charts, k)
		}
	}
	c.charts[key] = renderedChart{html: html, expires: now.Add(c.ttl)}
}
