package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tschomay/mindweb/pkg/cache"
	"github.com/tschomay/mindweb/pkg/mindmap"
	"github.com/tschomay/mindweb/pkg/observability"
	"github.com/tschomay/mindweb/pkg/render"
)

const cacheKeyType = "render"

// Runner executes the pipeline with caching.
//
// A Runner holds no per-run state, so one Runner can serve concurrent
// requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means cache.DefaultKeyer, a nil
// cache disables caching and a nil logger means log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute renders v. Cache failures are logged and never fail the run.
func (r *Runner) Execute(ctx context.Context, v mindmap.View, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	start := time.Now()
	shown := v
	if !opts.ShowHidden {
		shown = v.Visible()
	}
	res := &Result{
		ContentType: opts.Format.ContentType(),
		DOT:         render.ToDOT(v, opts.renderOptions()),
		Stats:       Stats{Nodes: len(shown.Nodes), Edges: len(shown.Edges)},
	}
	res.DOTHash = cache.Hash([]byte(res.DOT))
	key := r.Keyer.RenderKey(res.DOTHash, opts.keyOpts())

	if !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		switch {
		case err != nil:
			r.Logger.Warn("render cache read failed", "err", err)
		case hit:
			observability.Cache().OnCacheHit(ctx, cacheKeyType)
			res.Artifact = data
			res.CacheHit = true
			res.Stats.RenderTime = time.Since(start)
			r.Logger.Debug("render cache hit", "format", opts.Format, "dot", res.DOTHash[:12])
			return res, nil
		default:
			observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		}
	}

	data, err := render.Render(ctx, res.DOT, opts.Format)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Artifact = data
	res.Stats.RenderTime = time.Since(start)

	if err := r.Cache.Set(ctx, key, data, opts.TTL); err != nil {
		r.Logger.Warn("render cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
	}

	r.Logger.Info("rendered map",
		"format", opts.Format,
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"bytes", len(data),
		"duration", res.Stats.RenderTime.Round(time.Millisecond))
	return res, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
