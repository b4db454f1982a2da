package corpus

import (
	"testing"

	"github.com/hoedur-go/hoedur/pkg/chrono"
	"github.com/hoedur-go/hoedur/pkg/coverage"
	"github.com/hoedur-go/hoedur/pkg/inputfile"
	"github.com/hoedur-go/hoedur/pkg/prng"
	"github.com/hoedur-go/hoedur/pkg/streamctx"
	"github.com/hoedur-go/hoedur/pkg/stopreason"
)

func bitmapWithEdges(edges ...int) *coverage.Bitmap {
	var bm coverage.Bitmap
	for _, e := range edges {
		bm[e] = 1
	}
	return &bm
}

func emptyChrono() *chrono.Stream { return chrono.Build(nil) }

func resultFor(id streamctx.InputID, edges ...int) Result {
	return Result{
		File:       &inputfile.File{ID: id},
		Chrono:     emptyChrono(),
		Bitmap:     bitmapWithEdges(edges...),
		StopReason: stopreason.StopReason{Kind: stopreason.EndOfInput},
	}
}

func TestProcessResult_FirstCoverageIsAlwaysNew(t *testing.T) {
	c := New()
	kind := c.ProcessResult(nil, resultFor(1, 1, 2, 3), true)
	if kind != NewCoverage {
		t.Fatalf("ProcessResult on an empty corpus = %v, want NewCoverage", kind)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after admitting the first input", c.Len())
	}
}

func TestProcessResult_RepeatCoverageIsUninteresting(t *testing.T) {
	c := New()
	c.ProcessResult(nil, resultFor(1, 1, 2, 3), true)

	kind := c.ProcessResult(nil, resultFor(2, 1, 2), true)
	if kind != Uninteresting {
		t.Fatalf("ProcessResult for already-seen features = %v, want Uninteresting", kind)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (no new input admitted)", c.Len())
	}
}

func TestProcessResult_PartialNewFeaturesAdmitted(t *testing.T) {
	c := New()
	c.ProcessResult(nil, resultFor(1, 1, 2), true)

	kind := c.ProcessResult(nil, resultFor(2, 2, 3), true)
	if kind != NewCoverage {
		t.Fatalf("ProcessResult with one new feature (edge 3) = %v, want NewCoverage", kind)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestProcessResult_ShorterChildClassifiedShorterInput(t *testing.T) {
	c := New()
	c.ProcessResult(nil, resultFor(1, 1, 2), true)
	parent, ok := c.Get(1)
	if !ok {
		t.Fatal("expected input 1 to be scheduled")
	}
	// Simulate a longer read count on the parent so the child can be shorter.
	parent.ReadCount = 5

	child := resultFor(2, 1, 2) // same features, same stop reason, read count 0 < 5
	kind := c.ProcessResult(parent, child, true)
	if kind != ShorterInput {
		t.Fatalf("ProcessResult for a strictly shorter, same-coverage child = %v, want ShorterInput", kind)
	}
}

func TestProcessResult_UpdateFalseDoesNotMutateBookkeeping(t *testing.T) {
	c := New()
	c.ProcessResult(nil, resultFor(1, 1, 2), false)
	if c.executionCount != 0 {
		t.Error("ProcessResult with update=false should not bump executionCount")
	}
	// The input is still admitted on NewCoverage regardless of update, since
	// admission tracks scheduled inputs, not execution statistics.
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (admission happens regardless of update)", c.Len())
	}
}

func crashResultFor(id streamctx.InputID, edges ...int) Result {
	r := resultFor(id, edges...)
	r.StopReason = stopreason.StopReason{Kind: stopreason.Crash}
	return r
}

func TestProcessResult_CrashWithNewFeatureIsArchivedNotScheduled(t *testing.T) {
	c := New()

	kind := c.ProcessResult(nil, crashResultFor(1, 1, 2), true)
	if kind != NewCoverage {
		t.Fatalf("ProcessResult for a first-seen crash feature = %v, want NewCoverage (so the caller archives it)", kind)
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0: crash-category results must never enter the scheduling pool", c.Len())
	}
	if _, ok := c.Get(1); ok {
		t.Fatal("a crash-category result must not be retrievable as a scheduled input")
	}
}

func TestProcessResult_RepeatCrashFeatureIsUninteresting(t *testing.T) {
	c := New()
	c.ProcessResult(nil, crashResultFor(1, 1, 2), true)

	kind := c.ProcessResult(nil, crashResultFor(2, 1, 2), true)
	if kind != Uninteresting {
		t.Fatalf("ProcessResult for an already-seen crash feature = %v, want Uninteresting", kind)
	}
}

func TestReplaceInput_KeepsParentID(t *testing.T) {
	c := New()
	c.ProcessResult(nil, resultFor(1, 1), true)
	parent, _ := c.Get(1)
	originalID := parent.ID

	replacement := resultFor(2, 1)
	c.ReplaceInput(parent, replacement)

	if parent.ID != originalID {
		t.Error("ReplaceInput should never change the parent's ID")
	}
	if parent.File != replacement.File {
		t.Error("ReplaceInput should swap in the replacement's File")
	}
}

func TestRandomInput_EmptyCorpus(t *testing.T) {
	c := New()
	if got := c.RandomInput(prng.New(1)); got != nil {
		t.Error("RandomInput on an empty corpus should return nil")
	}
}

func TestRandomInput_AlwaysReturnsScheduledInput(t *testing.T) {
	c := New()
	c.ProcessResult(nil, resultFor(1, 1), true)
	c.ProcessResult(nil, resultFor(2, 2), true)
	c.ProcessResult(nil, resultFor(3, 3), true)

	r := prng.New(7)
	for i := 0; i < 50; i++ {
		info := c.RandomInput(r)
		if info == nil {
			t.Fatal("RandomInput returned nil on a non-empty corpus")
		}
		if _, ok := c.Get(info.ID); !ok {
			t.Fatalf("RandomInput returned an input %d not tracked by the corpus", info.ID)
		}
	}
}
