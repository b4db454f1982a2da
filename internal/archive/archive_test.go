package archive

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/hoedur-go/hoedur/pkg/inputfile"
	"github.com/hoedur-go/hoedur/pkg/inputstream"
	"github.com/hoedur-go/hoedur/pkg/streamctx"
	"github.com/hoedur-go/hoedur/pkg/stopreason"
)

func openForInspection(t *testing.T, path string) *tar.Reader {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("open gzip stream: %v", err)
	}
	t.Cleanup(func() { gz.Close() })
	return tar.NewReader(gz)
}

func TestCreate_WritesSessionID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.tar.gz")
	a, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.SessionID().String() == "" {
		t.Error("SessionID should be non-empty after Create")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	tr := openForInspection(t, path)
	hdr, err := tr.Next()
	if err != nil {
		t.Fatalf("expected at least one tar entry: %v", err)
	}
	if hdr.Name != "config/session.txt" {
		t.Errorf("first entry = %q, want config/session.txt", hdr.Name)
	}
}

func TestCategoryDir(t *testing.T) {
	cases := map[stopreason.Category]string{
		stopreason.CategoryInput:   "input",
		stopreason.CategoryCrash:   "crash",
		stopreason.CategoryExit:    "exit",
		stopreason.CategoryTimeout: "timeout",
		stopreason.CategoryInvalid: "invalid",
	}
	for cat, want := range cases {
		if got := categoryDir(cat); got != want {
			t.Errorf("categoryDir(%v) = %q, want %q", cat, got, want)
		}
	}
}

func TestWriteInput_PlacesUnderCategoryDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.tar.gz")
	a, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	f := &inputfile.File{ID: 7, Streams: map[streamctx.InputContext]*inputstream.Stream{}}
	if err := a.WriteInput(stopreason.CategoryCrash, f); err != nil {
		t.Fatalf("WriteInput failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	tr := openForInspection(t, path)
	var sawCrashEntry bool
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		if hdr.Name == "crash/"+f.Filename() {
			sawCrashEntry = true
		}
	}
	if !sawCrashEntry {
		t.Errorf("archive should contain crash/%s after WriteInput(CategoryCrash, ...)", f.Filename())
	}
}

func TestWriteSeed_ThenClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.tar.gz")
	a, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := a.WriteSeed(0xdeadbeef); err != nil {
		t.Fatalf("WriteSeed failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	tr := openForInspection(t, path)
	var sawSeed bool
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		if hdr.Name == "config/seed.bin" {
			sawSeed = true
		}
	}
	if !sawSeed {
		t.Error("archive should contain config/seed.bin after WriteSeed")
	}
}
