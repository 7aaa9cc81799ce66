// Package cache stores rendered artifacts of mind map views.
//
// Rendering a view through Graphviz is the most expensive thing a host does,
// and the same visible view is rendered over and over as users toggle back
// and forth. Artifacts are keyed by a hash of the DOT source, so any backend
// that can store bytes under a string key can serve them.
//
// # Backends
//
//   - [FileCache] keeps entries as JSON files under a directory (CLI default).
//   - [RedisCache] stores entries in Redis with native expiry.
//   - [MongoCache] stores entries as documents with a TTL index.
//   - [NullCache] disables caching.
//
// # Keys
//
// A [Keyer] turns a DOT hash and render options into a key. [ScopedKeyer]
// prefixes another keyer so several maps can share one backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
//
// Get reports a miss with ok == false and a nil error. A zero ttl passed to
// Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// TTLArtifact is the default lifetime of a rendered artifact.
const TTLArtifact = 7 * 24 * time.Hour

// RenderKeyOpts are the render settings that change the artifact bytes.
type RenderKeyOpts struct {
	Format  string `json:"format"`
	RankDir string `json:"rankdir,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	RenderKey(dotHash string, opts RenderKeyOpts) string
}

// DefaultKeyer builds keys of the form "render:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RenderKey hashes the DOT hash together with the options.
func (DefaultKeyer) RenderKey(dotHash string, opts RenderKeyOpts) string {
	return hashKey("render", dotHash, opts)
}
