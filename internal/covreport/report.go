// Package covreport builds an aggregated per-input coverage report for the
// run-cov CLI subcommand.
package covreport

import (
	"encoding/json"
	"io"
	"time"

	"github.com/hoedur-go/hoedur/pkg/coverage"
	"github.com/hoedur-go/hoedur/pkg/stopreason"
	"github.com/hoedur-go/hoedur/pkg/streamctx"
)

// InputSummary is one replayed input's contribution to the aggregate report.
type InputSummary struct {
	ID         streamctx.InputID  `json:"id"`
	StopReason string             `json:"stop_reason"`
	Category   string             `json:"category"`
	NewEdges   int                `json:"new_edges"`
	TotalEdges int                `json:"total_edges_at_input"`
}

// Report is the full aggregate produced by a run-cov batch.
type Report struct {
	GeneratedAt  time.Time      `json:"generated_at"`
	InputCount   int            `json:"input_count"`
	TotalEdges   int            `json:"total_edges"`
	CrashCount   int            `json:"crash_count"`
	TimeoutCount int            `json:"timeout_count"`
	Inputs       []InputSummary `json:"inputs"`
}

// Builder accumulates coverage across a sequence of replayed inputs,
// attributing to each input the edges it was first to reach.
type Builder struct {
	seen map[uint16]struct{}
	rep  Report
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{seen: make(map[uint16]struct{})}
}

// Add folds one replayed input's bitmap into the aggregate.
func (b *Builder) Add(id streamctx.InputID, sr stopreason.StopReason, bm *coverage.Bitmap) {
	category := stopreason.CategoryOf(sr)
	newEdges := 0
	if bm != nil {
		for edge := range bm.Edges() {
			if _, ok := b.seen[edge]; !ok {
				b.seen[edge] = struct{}{}
				newEdges++
			}
		}
	}

	switch category {
	case stopreason.CategoryCrash:
		b.rep.CrashCount++
	case stopreason.CategoryTimeout:
		b.rep.TimeoutCount++
	}

	b.rep.Inputs = append(b.rep.Inputs, InputSummary{
		ID:         id,
		StopReason: sr.String(),
		Category:   category.String(),
		NewEdges:   newEdges,
		TotalEdges: len(b.seen),
	})
	b.rep.InputCount++
}

// Build finalizes and returns the Report.
func (b *Builder) Build() Report {
	b.rep.TotalEdges = len(b.seen)
	return b.rep
}

// WriteJSON encodes report to w as indented JSON, stamping GeneratedAt now.
func WriteJSON(w io.Writer, report Report) error {
	report.GeneratedAt = nowOverride()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// nowOverride exists so tests can substitute a fixed clock without a
// time.Now call spreading through the package; production callers get the
// real wall clock.
var nowOverride = time.Now
