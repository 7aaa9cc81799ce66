// Package pipeline turns a mind map view into a rendered artifact, going
// through a cache on the way.
//
// The pipeline has two stages:
//
//  1. DOT: the visible part of the view becomes Graphviz source
//  2. Render: the source is laid out and encoded as SVG, PNG or DOT
//
// The second stage is the expensive one. Its output is cached under a key
// derived from the hash of the DOT source, so toggling a node back to a state
// that was rendered before is served from the cache.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, sess.View(), pipeline.Options{Format: "svg"})
//	if err != nil {
//	    return err
//	}
//	w.Write(res.Artifact)
//
// The CLI render command and the HTTP render endpoint both go through a Runner.
package pipeline

import (
	"time"

	"github.com/tschomay/mindweb/pkg/cache"
	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	"github.com/tschomay/mindweb/pkg/mindmap"
	"github.com/tschomay/mindweb/pkg/render"
)

// DefaultFormat is used when Options.Format is empty.
const DefaultFormat = render.FormatSVG

// Options configures one pipeline run.
type Options struct {
	Format     render.Format
	RankDir    string
	Selected   mindmap.NodeID
	ShowHidden bool

	// Refresh skips the cache lookup but still stores the new artifact.
	Refresh bool

	// TTL is the lifetime of the cached artifact. Zero means cache.TTLArtifact.
	TTL time.Duration
}

// ValidateAndSetDefaults fills in defaults and checks every field.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if _, err := render.ParseFormat(string(o.Format)); err != nil {
		return err
	}
	if o.RankDir == "" {
		o.RankDir = render.RankTB
	}
	if err := o.renderOptions().Validate(); err != nil {
		return err
	}
	if o.TTL < 0 {
		return mwerrors.New(mwerrors.ErrCodeInvalidInput, "ttl must not be negative")
	}
	if o.TTL == 0 {
		o.TTL = cache.TTLArtifact
	}
	return nil
}

func (o Options) renderOptions() render.Options {
	return render.Options{RankDir: o.RankDir, Selected: o.Selected, ShowHidden: o.ShowHidden}
}

func (o Options) keyOpts() cache.RenderKeyOpts {
	return cache.RenderKeyOpts{Format: string(o.Format), RankDir: o.RankDir}
}

// Result is the output of a pipeline run.
type Result struct {
	Artifact    []byte
	ContentType string
	DOT         string
	DOTHash     string
	CacheHit    bool
	Stats       Stats
}

// Stats describes the rendered view and the time spent.
type Stats struct {
	Nodes      int
	Edges      int
	RenderTime time.Duration
}
