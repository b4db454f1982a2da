package corpus

import (
	"math"

	"github.com/hoedur-go/hoedur/pkg/inputstream"
	"github.com/hoedur-go/hoedur/pkg/prng"
	"github.com/hoedur-go/hoedur/pkg/streamctx"
)

// StreamRandomDistribution selects how RandomStreamIndex weighs an input's
// live streams.
type StreamRandomDistribution uint8

const (
	Uniform StreamRandomDistribution = iota
	Success
)

// SizeScale controls how a stream's length contributes to its Success
// weight. BitValuesPow2 (next-power-of-two of bit-width*length) is the
// default, matching the source's SUCCESS_DISTRIBUTION_SCALE.
var SizeScale = inputstream.ScaleBitValuesPow2

// LnSmoothing applies ln(successes)/ln(mutations) smoothing instead of the
// raw ratio; off by default.
var LnSmoothing = false

// StreamDistribution is one input's lazily-built, cached stream-selection
// distribution. It is invalidated whenever that input's per-stream success
// counters change.
type StreamDistribution struct {
	contexts []streamctx.InputContext
	alias    *prng.AliasTable
	stale    bool
}

func NewStreamDistribution() *StreamDistribution {
	return &StreamDistribution{stale: true}
}

// Invalidate marks the cached distribution stale, forcing a rebuild on next
// use.
func (d *StreamDistribution) Invalidate() { d.stale = true }

func successWeight(entry *StreamSuccess, scaled float64) float64 {
	if entry == nil || entry.Count == 0 {
		// no recorded success/count yet: new streams can appear during
		// mutation even without stacking, so default to fully viable.
		return 1.0
	}
	successes := float64(entry.Success)
	mutations := float64(entry.Count)
	if LnSmoothing {
		successes = math.Log1p(successes)
		mutations = math.Log1p(mutations)
	}
	if mutations == 0 {
		return 1.0
	}
	return (successes / mutations) * scaled
}

// RandomStreamIndex picks a live stream context from info, according to
// distribution.
func (d *StreamDistribution) RandomStreamIndex(info *InputInfo, distribution StreamRandomDistribution, r *prng.Source) (streamctx.InputContext, bool) {
	if len(info.File.Streams) == 0 {
		return streamctx.InputContext{}, false
	}

	if d.stale || d.contexts == nil {
		d.contexts = make([]streamctx.InputContext, 0, len(info.File.Streams))
		for ctx := range info.File.Streams {
			d.contexts = append(d.contexts, ctx)
		}
	}

	switch distribution {
	case Uniform:
		idx := r.Intn(len(d.contexts))
		return d.contexts[idx], true
	case Success:
		if d.alias == nil || d.stale {
			weights := make([]float64, len(d.contexts))
			for i, ctx := range d.contexts {
				s := info.File.Streams[ctx]
				scaled := s.ScaledSize(SizeScale)
				weights[i] = successWeight(info.StreamSuccess[ctx], scaled)
			}
			d.alias = prng.NewAliasTable(weights)
			d.stale = false
		}
		idx := d.alias.Sample(r)
		return d.contexts[idx], true
	}
	return streamctx.InputContext{}, false
}
