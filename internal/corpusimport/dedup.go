// Package corpusimport loads external input files into a fresh corpus,
// filtering near-duplicates by fuzzy hashing their serialized bytes.
package corpusimport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glaslos/tlsh"

	"github.com/hoedur-go/hoedur/internal/errorkind"
	"github.com/hoedur-go/hoedur/pkg/inputfile"
)

// minHashSize is TLSH's minimum input length for a meaningful hash; smaller
// inputs are always imported since they can't be fuzzy-matched.
const minHashSize = 50

// defaultSimilarityThreshold is the maximum TLSH distance for two inputs to
// be considered near-duplicates (lower = more similar required).
const defaultSimilarityThreshold = 30

// Deduper filters a stream of candidate inputs against the fuzzy hashes of
// every input admitted so far.
type Deduper struct {
	threshold int
	hashes    []*tlsh.TLSH
}

// NewDeduper returns a Deduper using threshold as the maximum TLSH distance
// for two inputs to collide; 0 selects defaultSimilarityThreshold.
func NewDeduper(threshold int) *Deduper {
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}
	return &Deduper{threshold: threshold}
}

// Admit reports whether data is distinct enough from every previously
// admitted input to be worth importing, and if so records its hash.
// Inputs too small to hash are always admitted.
func (d *Deduper) Admit(data []byte) bool {
	if len(data) < minHashSize {
		return true
	}
	h, err := tlsh.HashBytes(data)
	if err != nil {
		return true
	}
	for _, existing := range d.hashes {
		if existing.Diff(h) <= d.threshold {
			return false
		}
	}
	d.hashes = append(d.hashes, h)
	return true
}

// LoadDir reads every regular file in dir as a serialized input.File,
// admitting only those distinct from inputs already seen, per Deduper.
func LoadDir(dir string, threshold int) ([]*inputfile.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errorkind.Wrap(errorkind.Corpus, fmt.Errorf("read %s: %w", dir, err))
	}

	dedup := NewDeduper(threshold)
	var out []*inputfile.File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errorkind.Wrap(errorkind.Corpus, fmt.Errorf("read %s: %w", path, err))
		}
		if !dedup.Admit(raw) {
			continue
		}
		f, err := inputfile.ReadFrom(bytes.NewReader(raw))
		if err != nil {
			return nil, errorkind.Wrap(errorkind.Corpus, fmt.Errorf("parse %s: %w", path, err))
		}
		out = append(out, f)
	}
	return out, nil
}
