package errorkind

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(Config, nil); err != nil {
		t.Errorf("Wrap(Config, nil) = %v, want nil", err)
	}
}

func TestWrap_PreservesUnderlyingError(t *testing.T) {
	underlying := errors.New("boom")
	wrapped := Wrap(Archive, underlying)
	if !errors.Is(wrapped, underlying) {
		t.Error("Wrap did not preserve the underlying error for errors.Is")
	}
}

func TestIs_MatchesKind(t *testing.T) {
	err := Wrap(Corpus, errors.New("bad input file"))
	if !Is(err, Corpus) {
		t.Error("Is(err, Corpus) = false, want true")
	}
	if Is(err, Emulator) {
		t.Error("Is(err, Emulator) = true, want false")
	}
}

func TestIs_UnwrappedError(t *testing.T) {
	if Is(errors.New("plain"), Config) {
		t.Error("Is should report false for an error with no Kind")
	}
}

func TestIs_ThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("context: %w", Wrap(Internal, errors.New("invariant violated")))
	if !Is(err, Internal) {
		t.Error("Is should see through an fmt.Errorf %w wrapper")
	}
}

func TestWrapf_FormatsMessage(t *testing.T) {
	err := Wrapf(Emulator, "snapshot %d failed", 3)
	if got, want := err.Error(), "emulator: snapshot 3 failed"; got != want {
		t.Errorf("Wrapf error text = %q, want %q", got, want)
	}
}

func TestKind_String(t *testing.T) {
	cases := map[Kind]string{
		Config:   "config",
		Emulator: "emulator",
		Archive:  "archive",
		Corpus:   "corpus",
		Internal: "internal",
		Kind(99): "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
