package cache

// ScopedKeyer prefixes every key of another Keyer, giving each snapshot its
// own namespace in a shared backend:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "map:"+cache.Hash([]byte(path))+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means the
// default one.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// RenderKey returns the inner key with the prefix prepended.
func (k *ScopedKeyer) RenderKey(dotHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(dotHash, opts)
}
