package covreport

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hoedur-go/hoedur/pkg/coverage"
	"github.com/hoedur-go/hoedur/pkg/stopreason"
)

func bitmapWithEdges(edges ...int) *coverage.Bitmap {
	var bm coverage.Bitmap
	for _, e := range edges {
		bm[e] = 1
	}
	return &bm
}

func TestBuilder_TracksNewEdgesAcrossInputs(t *testing.T) {
	b := NewBuilder()

	b.Add(1, stopreason.StopReason{Kind: stopreason.EndOfInput}, bitmapWithEdges(1, 2, 3))
	b.Add(2, stopreason.StopReason{Kind: stopreason.EndOfInput}, bitmapWithEdges(2, 3, 4))
	report := b.Build()

	if report.InputCount != 2 {
		t.Errorf("InputCount = %d, want 2", report.InputCount)
	}
	if report.TotalEdges != 4 {
		t.Errorf("TotalEdges = %d, want 4", report.TotalEdges)
	}
	if report.Inputs[0].NewEdges != 3 {
		t.Errorf("first input NewEdges = %d, want 3", report.Inputs[0].NewEdges)
	}
	if report.Inputs[1].NewEdges != 1 {
		t.Errorf("second input NewEdges = %d, want 1 (only edge 4 is new)", report.Inputs[1].NewEdges)
	}
	if report.Inputs[1].TotalEdges != 4 {
		t.Errorf("second input TotalEdges snapshot = %d, want 4", report.Inputs[1].TotalEdges)
	}
}

func TestBuilder_CountsCrashesAndTimeouts(t *testing.T) {
	b := NewBuilder()
	b.Add(1, stopreason.StopReason{Kind: stopreason.Crash}, nil)
	b.Add(2, stopreason.StopReason{Kind: stopreason.LimitReached}, nil)
	b.Add(3, stopreason.StopReason{Kind: stopreason.EndOfInput}, nil)
	report := b.Build()

	if report.CrashCount != 1 {
		t.Errorf("CrashCount = %d, want 1", report.CrashCount)
	}
	if report.TimeoutCount != 1 {
		t.Errorf("TimeoutCount = %d, want 1", report.TimeoutCount)
	}
}

func TestBuilder_NilBitmapContributesNoEdges(t *testing.T) {
	b := NewBuilder()
	b.Add(1, stopreason.StopReason{Kind: stopreason.Crash}, nil)
	report := b.Build()

	if report.TotalEdges != 0 {
		t.Errorf("TotalEdges = %d, want 0 for a crash with no coverage bitmap", report.TotalEdges)
	}
	if report.Inputs[0].NewEdges != 0 {
		t.Errorf("NewEdges = %d, want 0", report.Inputs[0].NewEdges)
	}
}

func TestWriteJSON_ProducesValidReport(t *testing.T) {
	b := NewBuilder()
	b.Add(1, stopreason.StopReason{Kind: stopreason.EndOfInput}, bitmapWithEdges(5))
	report := b.Build()

	var buf bytes.Buffer
	if err := WriteJSON(&buf, report); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.InputCount != 1 {
		t.Errorf("decoded InputCount = %d, want 1", decoded.InputCount)
	}
	if decoded.GeneratedAt.IsZero() {
		t.Error("WriteJSON should stamp a non-zero GeneratedAt")
	}
}
