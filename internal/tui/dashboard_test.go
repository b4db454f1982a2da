package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestStats_SnapshotReflectsUpdates(t *testing.T) {
	s := NewStats()
	s.IncExecutions()
	s.IncExecutions()
	s.SetCorpusSize(5)
	s.SetEdges(100)
	s.IncCrashes()
	s.IncTimeouts()
	s.IncTimeouts()

	snap := s.Snapshot()
	if snap.Executions != 2 {
		t.Errorf("Executions = %d, want 2", snap.Executions)
	}
	if snap.CorpusSize != 5 {
		t.Errorf("CorpusSize = %d, want 5", snap.CorpusSize)
	}
	if snap.Edges != 100 {
		t.Errorf("Edges = %d, want 100", snap.Edges)
	}
	if snap.Crashes != 1 {
		t.Errorf("Crashes = %d, want 1", snap.Crashes)
	}
	if snap.Timeouts != 2 {
		t.Errorf("Timeouts = %d, want 2", snap.Timeouts)
	}
}

func TestStats_SnapshotExecPerSecNonNegative(t *testing.T) {
	s := NewStats()
	s.IncExecutions()
	snap := s.Snapshot()
	if snap.ExecPerSec < 0 {
		t.Errorf("ExecPerSec = %f, want >= 0", snap.ExecPerSec)
	}
}

func TestDashboard_UpdateQuitInvokesRequestExit(t *testing.T) {
	called := false
	d := NewDashboard("demo", NewStats(), func() { called = true })

	_, cmd := d.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !called {
		t.Error("pressing q should invoke requestExit")
	}
	if cmd == nil {
		t.Error("pressing q should return a quit command")
	}
}
