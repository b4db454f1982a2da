// Package dictionary extracts byte-string entries from read-only firmware
// memory at startup, for use by the Dictionary mutator.
package dictionary

import (
	"github.com/hoedur-go/hoedur/pkg/emulator"
	"github.com/hoedur-go/hoedur/pkg/prng"
)

// minEntryLen is the shortest byte run worth keeping as a dictionary entry.
const minEntryLen = 2

// Dictionary is a flat set of byte-slice entries extracted from read-only
// memory blocks.
type Dictionary struct {
	entries [][]byte
}

// Build scans every read-only memory block for ASCII string runs and small
// integer constants, and collects them as dictionary entries.
func Build(blocks []emulator.MemoryBlock) *Dictionary {
	d := &Dictionary{}
	for _, b := range blocks {
		if !b.ReadOnly {
			continue
		}
		d.scanStrings(b.Bytes)
		d.scanIntegers(b.Bytes)
	}
	return d
}

func isPrintable(b byte) bool { return b >= 0x20 && b < 0x7f }

func (d *Dictionary) scanStrings(data []byte) {
	start := -1
	for i, b := range data {
		if isPrintable(b) {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 && i-start >= minEntryLen {
			d.addEntry(data[start:i])
		}
		start = -1
	}
	if start != -1 && len(data)-start >= minEntryLen {
		d.addEntry(data[start:])
	}
}

// scanIntegers collects every width-aligned little-endian 2- and 4-byte
// window (offsets that are multiples of the width) as a
// candidate constant. This over-collects relative to the source's constant
// folding, but random_entry's uniform pick keeps common runs from
// dominating the dictionary's usefulness.
func (d *Dictionary) scanIntegers(data []byte) {
	for _, width := range []int{2, 4} {
		for i := 0; i+width <= len(data); i += width {
			window := data[i : i+width]
			nonZero := false
			for _, b := range window {
				if b != 0 {
					nonZero = true
					break
				}
			}
			if nonZero {
				d.addEntry(window)
			}
		}
	}
}

func (d *Dictionary) addEntry(b []byte) {
	entry := make([]byte, len(b))
	copy(entry, b)
	d.entries = append(d.entries, entry)
}

// RandomEntry returns a uniformly-chosen entry, or nil if the dictionary is
// empty.
func (d *Dictionary) RandomEntry(r *prng.Source) []byte {
	if len(d.entries) == 0 {
		return nil
	}
	return d.entries[r.Intn(len(d.entries))]
}
