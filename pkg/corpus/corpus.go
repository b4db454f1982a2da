// Package corpus implements the scheduled-input set, rare-feature tracker,
// and entropic energy scheduling that decide which inputs get mutated and
// how often.
package corpus

import (
	"math"

	"github.com/hoedur-go/hoedur/pkg/chrono"
	"github.com/hoedur-go/hoedur/pkg/coverage"
	"github.com/hoedur-go/hoedur/pkg/inputfile"
	"github.com/hoedur-go/hoedur/pkg/prng"
	"github.com/hoedur-go/hoedur/pkg/streamctx"
	"github.com/hoedur-go/hoedur/pkg/stopreason"
)

// Tunables mirroring the source's corpus/fuzzer config constants.
const (
	MinRareFeatures          = 100
	FeatureFrequencyMax      = 0xff
	MaxMutationFactor        = 20.0
	UpdateEnergyInterval     = 128
	StreamSuccessUpdateEvery = 1000
	ReplaceWithShorterInput  = true
)

// StreamSuccess is the per-(input,stream) success-rate bookkeeping used by
// the Success stream-selection distribution.
type StreamSuccess struct {
	Count   uint64
	Success uint64
}

// Result is what the fuzzer loop feeds the corpus after one execution.
type Result struct {
	File       *inputfile.File
	Chrono     *chrono.Stream
	Bitmap     *coverage.Bitmap
	StopReason stopreason.StopReason
	// MutatedContexts lists the stream contexts touched by the mutation
	// chain that produced File, for per-stream success bookkeeping.
	MutatedContexts []streamctx.InputContext
}

func (r Result) readCount() int {
	if r.Chrono == nil {
		return 0
	}
	return r.Chrono.Len()
}

// ResultKind is the classification ProcessResult assigns to one Result.
type ResultKind uint8

const (
	Uninteresting ResultKind = iota
	NewCoverage
	ShorterInput
)

// InputInfo is one scheduled corpus entry.
type InputInfo struct {
	ID         streamctx.InputID
	File       *inputfile.File
	Chrono     *chrono.Stream
	StopReason stopreason.StopReason
	ReadCount  int

	UniqFeatures   map[coverage.Feature]struct{}
	LocalFrequency map[coverage.Feature]uint16

	MutationCount      uint64
	ChildCategoryCount map[stopreason.Category]uint64

	SumIncidence float64
	RawEnergy    float64
	Energy       float64

	StreamSuccess       map[streamctx.InputContext]*StreamSuccess
	Distribution        *StreamDistribution
	SinceSuccessUpdate  uint64
}

func newInputInfo(f *inputfile.File, cs *chrono.Stream, sr stopreason.StopReason) *InputInfo {
	return &InputInfo{
		ID:                 f.ID,
		File:               f,
		Chrono:             cs,
		StopReason:         sr,
		ReadCount:          cs.Len(),
		UniqFeatures:       make(map[coverage.Feature]struct{}),
		LocalFrequency:     make(map[coverage.Feature]uint16),
		ChildCategoryCount: make(map[stopreason.Category]uint64),
		StreamSuccess:      make(map[streamctx.InputContext]*StreamSuccess),
		Distribution:       NewStreamDistribution(),
	}
}

// Corpus holds the full scheduled-input state.
type Corpus struct {
	inputs map[streamctx.InputID]*InputInfo
	order  []streamctx.InputID

	alias      *prng.AliasTable
	aliasOrder []streamctx.InputID
	sinceAlias int
	aliasStale bool

	featureFrequency    map[coverage.Feature]uint16
	rareFeatures        map[coverage.Feature]struct{}
	maxRareFrequency    uint16
	edges               map[uint16]struct{}
	unscheduledFeatures map[coverage.Feature]struct{}

	totalMutations    uint64
	sumMutationCount  uint64
	sumBasicBlocks    uint64
	executionCount    uint64
}

// New returns an empty corpus.
func New() *Corpus {
	return &Corpus{
		inputs:              make(map[streamctx.InputID]*InputInfo),
		featureFrequency:    make(map[coverage.Feature]uint16),
		rareFeatures:        make(map[coverage.Feature]struct{}),
		edges:               make(map[uint16]struct{}),
		unscheduledFeatures: make(map[coverage.Feature]struct{}),
		aliasStale:          true,
	}
}

// Len reports how many inputs are scheduled.
func (c *Corpus) Len() int { return len(c.order) }

// Get returns the InputInfo for id, if present.
func (c *Corpus) Get(id streamctx.InputID) (*InputInfo, bool) {
	i, ok := c.inputs[id]
	return i, ok
}

func satAdd(v uint16, max uint16) uint16 {
	if v >= max {
		return max
	}
	return v + 1
}

// bumpFrequency saturating-increments the global frequency of feature, and
// (if feature is rare) the parent's local frequency and the cached max.
func (c *Corpus) bumpFrequency(feature coverage.Feature, parent *InputInfo) {
	c.featureFrequency[feature] = satAdd(c.featureFrequency[feature], FeatureFrequencyMax)
	if _, rare := c.rareFeatures[feature]; !rare {
		return
	}
	freq := c.featureFrequency[feature]
	if freq > c.maxRareFrequency {
		c.maxRareFrequency = freq
	}
	if parent != nil {
		parent.LocalFrequency[feature] = satAdd(parent.LocalFrequency[feature], FeatureFrequencyMax)
	}
}

// ProcessResult implements §4.4's classification and bookkeeping.
func (c *Corpus) ProcessResult(parent *InputInfo, res Result, update bool) ResultKind {
	category := stopreason.CategoryOf(res.StopReason)
	schedulable := category.Schedule()

	extracted := res.Bitmap.Features()
	newUniq := make(map[coverage.Feature]struct{})
	newUnscheduled := make(map[coverage.Feature]struct{})

	for f := range extracted {
		if _, known := c.featureFrequency[f]; known {
			if update {
				c.bumpFrequency(f, parent)
			}
			continue
		}
		if schedulable {
			newUniq[f] = struct{}{}
		} else if _, filtered := c.unscheduledFeatures[f]; !filtered {
			newUnscheduled[f] = struct{}{}
		}
	}

	kind := Uninteresting
	switch {
	case len(newUniq) > 0:
		kind = NewCoverage
	case !schedulable && len(newUnscheduled) > 0:
		// unscheduled categories (crash/exit/invalid) are never admitted into
		// the scheduling pool, but a genuinely new feature still marks the
		// result NewCoverage so the caller archives it for triage.
		kind = NewCoverage
	case parent != nil && parentCoveredBy(parent, extracted) &&
		res.readCount() < parent.ReadCount && res.StopReason == parent.StopReason:
		kind = ShorterInput
	}

	if update {
		c.totalMutations++
		if parent != nil {
			parent.MutationCount++
			parent.ChildCategoryCount[category]++
			c.applyStreamSuccess(parent, res.MutatedContexts, kind)
			c.sumMutationCount++
		}
		c.executionCount++
		c.sumBasicBlocks++ // basic-block accounting is approximated by execution count here
		c.aliasStale = true
	}

	for f := range newUnscheduled {
		c.unscheduledFeatures[f] = struct{}{}
	}

	if schedulable && kind == NewCoverage {
		c.addResult(parent, res, newUniq)
	}

	return kind
}

func parentCoveredBy(parent *InputInfo, extracted map[coverage.Feature]struct{}) bool {
	for f := range parent.UniqFeatures {
		if _, ok := extracted[f]; !ok {
			return false
		}
	}
	return true
}

func (c *Corpus) applyStreamSuccess(parent *InputInfo, touched []streamctx.InputContext, kind ResultKind) {
	success := kind == NewCoverage || (ReplaceWithShorterInput && kind == ShorterInput)
	for _, ctx := range touched {
		e, ok := parent.StreamSuccess[ctx]
		if !ok {
			e = &StreamSuccess{}
			parent.StreamSuccess[ctx] = e
		}
		e.Count++
		if success {
			e.Success++
		}
	}
	parent.SinceSuccessUpdate++
	if parent.SinceSuccessUpdate >= StreamSuccessUpdateEvery {
		parent.SinceSuccessUpdate = 0
		parent.Distribution.Invalidate()
	} else if len(touched) > 0 {
		parent.Distribution.Invalidate()
	}
}

// addResult admits a NewCoverage result as a fresh corpus entry.
func (c *Corpus) addResult(parent *InputInfo, res Result, newUniq map[coverage.Feature]struct{}) *InputInfo {
	info := newInputInfo(res.File, res.Chrono, res.StopReason)
	info.UniqFeatures = newUniq

	sumIncidence := float64(len(c.rareFeatures) + len(newUniq))
	if sumIncidence < 1 {
		sumIncidence = 1
	}
	info.SumIncidence = sumIncidence
	info.RawEnergy = math.Log(sumIncidence)
	info.Energy = info.RawEnergy

	for f := range newUniq {
		c.edges[f.Edge] = struct{}{}
		c.featureFrequency[f] = 1
		c.rareFeatures[f] = struct{}{}
	}

	for _, other := range c.inputs {
		for range newUniq {
			other.SumIncidence++
			other.RawEnergy += math.Log(other.SumIncidence) / other.SumIncidence
		}
	}

	c.inputs[info.ID] = info
	c.order = append(c.order, info.ID)
	c.aliasStale = true
	c.pruneRareFeatures()
	return info
}

// pruneRareFeatures implements the >100-rare-features saturating-pruning
// rule: drop the most abundant rare feature while the set is both large and
// saturated.
func (c *Corpus) pruneRareFeatures() {
	for len(c.rareFeatures) > MinRareFeatures && c.maxRareFrequency > FeatureFrequencyMax-1 {
		var victim coverage.Feature
		found := false
		for f := range c.rareFeatures {
			if c.featureFrequency[f] == c.maxRareFrequency {
				victim = f
				found = true
				break
			}
		}
		if !found {
			return
		}
		delete(c.rareFeatures, victim)
		for _, info := range c.inputs {
			delete(info.LocalFrequency, victim)
		}
		c.recomputeMaxRareFrequency()
	}
}

func (c *Corpus) recomputeMaxRareFrequency() {
	max := uint16(0)
	for f := range c.rareFeatures {
		if freq := c.featureFrequency[f]; freq > max {
			max = freq
		}
	}
	c.maxRareFrequency = max
}

// ReplaceInput implements the ShorterInput admission path: overwrite the
// parent's content in place, preserving its ID and admission order.
func (c *Corpus) ReplaceInput(parent *InputInfo, res Result) {
	parent.File = res.File
	parent.Chrono = res.Chrono
	parent.ReadCount = res.readCount()
	parent.Distribution.Invalidate()
	for ctx := range parent.File.Streams {
		parent.StreamSuccess[ctx] = &StreamSuccess{Count: 1, Success: 1}
	}
	c.aliasStale = true
}

func (c *Corpus) averageMutationCount() float64 {
	if len(c.order) == 0 {
		return 0
	}
	return float64(c.sumMutationCount) / float64(len(c.order))
}

func scaleByLimit(l stopreason.Limit) float64 {
	switch l {
	case stopreason.LimitBasicBlocks:
		return 1.0 / 100
	case stopreason.LimitInterrupts:
		return 1.0 / 50
	case stopreason.LimitMmioRead:
		return 1.0 / 10
	case stopreason.LimitInputReadOverdue:
		return 1.0 / 5
	}
	return 1
}

// childResultScale returns the multiplicative penalty applied for a
// category mix dominated by crashes/exits/timeouts, inverse to their
// weighted share of an input's children.
func childResultScale(counts map[stopreason.Category]uint64) float64 {
	weights := map[stopreason.Category]float64{
		stopreason.CategoryInput:   1,
		stopreason.CategoryCrash:   10,
		stopreason.CategoryExit:    10,
		stopreason.CategoryTimeout: 5,
	}
	var weighted, total float64
	for cat, n := range counts {
		w := weights[cat]
		weighted += w * float64(n)
		total += float64(n)
	}
	if total == 0 {
		return 1
	}
	avg := weighted / total
	if avg <= 0 {
		return 1
	}
	return 1 / avg
}

// basicBlockScale is the step function of basic_blocks/average_basic_blocks
// from §4.4.
func basicBlockScale(ratio float64) float64 {
	switch {
	case ratio > 10:
		return 1
	case ratio > 4:
		return 2.5
	case ratio > 2:
		return 5
	case ratio > 1.33:
		return 7.5
	case ratio < 0.25:
		return 30
	case ratio < 1.0/3:
		return 20
	case ratio < 0.5:
		return 15
	default:
		return 10
	}
}

// Energy (re)computes and caches an input's scheduling weight.
func (c *Corpus) Energy(info *InputInfo) float64 {
	avgMut := c.averageMutationCount()
	if avgMut > 0 && float64(info.MutationCount) > avgMut*MaxMutationFactor {
		info.Energy = 0
		return 0
	}

	var energy, sum float64
	for f, freq := range info.LocalFrequency {
		_ = f
		v := float64(freq) + 1
		energy -= v * math.Log(v)
		sum += v
	}
	sum += float64(len(c.rareFeatures) - len(info.LocalFrequency))
	mv := float64(info.MutationCount) + 1
	energy -= mv * math.Log(mv)
	sum += mv

	if sum <= 0 {
		sum = 1
	}
	energy = energy/sum + math.Log(sum)

	if info.StopReason.Kind == stopreason.LimitReached {
		energy *= scaleByLimit(info.StopReason.Limit)
	}
	energy *= childResultScale(info.ChildCategoryCount)

	avgBB := float64(c.sumBasicBlocks) / math.Max(1, float64(c.executionCount))
	if avgBB > 0 {
		energy *= basicBlockScale(1 / avgBB)
	}

	if energy < 0 {
		energy = 0
	}
	info.Energy = energy
	return energy
}

// rebuildAlias recomputes the scheduling weighted-index over every
// scheduled input.
func (c *Corpus) rebuildAlias() {
	c.aliasOrder = make([]streamctx.InputID, len(c.order))
	weights := make([]float64, len(c.order))
	for i, id := range c.order {
		info := c.inputs[id]
		c.aliasOrder[i] = id
		weights[i] = c.Energy(info)
	}
	c.alias = prng.NewAliasTable(weights)
	c.aliasStale = false
	c.sinceAlias = 0
}

// RandomInput samples one scheduled input via entropic weighted selection,
// rebuilding the alias table every UpdateEnergyInterval executions or when
// invalidated.
func (c *Corpus) RandomInput(r *prng.Source) *InputInfo {
	if len(c.order) == 0 {
		return nil
	}
	if c.alias == nil || c.aliasStale || c.sinceAlias >= UpdateEnergyInterval {
		c.rebuildAlias()
	}
	c.sinceAlias++
	idx := c.alias.Sample(r)
	return c.inputs[c.aliasOrder[idx]]
}
