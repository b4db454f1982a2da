// Package archive persists a fuzzing session's accepted inputs and run
// statistics to a gzip-compressed tar file, using the same directory
// convention as the original corpus archive: input/, crash/, exit/ and
// timeout/ subdirectories keyed by InputCategory, plus a statistics/ and
// config/ area.
package archive

import (
	"archive/tar"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/hoedur-go/hoedur/internal/errorkind"
	"github.com/hoedur-go/hoedur/pkg/inputfile"
	"github.com/hoedur-go/hoedur/pkg/stopreason"
)

// Archive is an append-only tar.gz writer for one fuzzing session. Every
// write is serialized through mu since archive/tar.Writer is not
// goroutine-safe.
type Archive struct {
	mu      sync.Mutex
	f       *os.File
	gz      *gzip.Writer
	tw      *tar.Writer
	id      uuid.UUID
	entries uint64
}

// Create opens a new archive file at path, tagging it with a fresh session
// UUID written under config/session.txt.
func Create(path string) (*Archive, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errorkind.Wrap(errorkind.Archive, fmt.Errorf("create %s: %w", path, err))
	}

	gz := gzip.NewWriter(f)
	a := &Archive{
		f:  f,
		gz: gz,
		tw: tar.NewWriter(gz),
		id: uuid.New(),
	}

	if err := a.writeRaw("config/session.txt", []byte(a.id.String()), time.Now()); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// SessionID returns the archive's generated session UUID.
func (a *Archive) SessionID() uuid.UUID { return a.id }

func categoryDir(c stopreason.Category) string {
	switch c {
	case stopreason.CategoryInput:
		return "input"
	case stopreason.CategoryCrash:
		return "crash"
	case stopreason.CategoryExit:
		return "exit"
	case stopreason.CategoryTimeout:
		return "timeout"
	default:
		return "invalid"
	}
}

// WriteInput serializes f under the category's subdirectory, satisfying the
// fuzzer.Sink interface.
func (a *Archive) WriteInput(category stopreason.Category, f *inputfile.File) error {
	size, err := f.WriteSize()
	if err != nil {
		return errorkind.Wrap(errorkind.Archive, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	name := fmt.Sprintf("%s/%s", categoryDir(category), f.Filename())
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    size,
		ModTime: time.Now(),
	}
	if err := a.tw.WriteHeader(hdr); err != nil {
		return errorkind.Wrap(errorkind.Archive, err)
	}
	if _, err := f.WriteTo(a.tw); err != nil {
		return errorkind.Wrap(errorkind.Archive, err)
	}
	a.entries++
	return nil
}

// ExecutionRecord is one row of the executions.bin statistics stream.
type ExecutionRecord struct {
	Timestamp  time.Time
	Category   stopreason.Category
	ReadCount  uint32
	CorpusSize uint32
}

// WriteExecutionStatistics writes one binary record as a new entry
// statistics/executions-NNNNNNNN.bin, numbered by the count of inputs written so far.
// Each call creates its own archive entry; the reader concatenates them in
// archive order to reconstruct the timeline.
func (a *Archive) WriteExecutionStatistics(rec ExecutionRecord) error {
	buf := make([]byte, 0, 24)
	buf = appendU64(buf, uint64(rec.Timestamp.UnixNano()))
	buf = append(buf, byte(rec.Category))
	buf = appendU32(buf, rec.ReadCount)
	buf = appendU32(buf, rec.CorpusSize)

	a.mu.Lock()
	defer a.mu.Unlock()
	name := fmt.Sprintf("statistics/executions-%08d.bin", a.entries)
	return a.writeRawLocked(name, buf, rec.Timestamp)
}

// WriteInputSizeStatistics writes one record as a new entry
// statistics/input-size-NNNNNNNN.bin, numbered like WriteExecutionStatistics,
// tracking corpus input length over time for plotting corpus growth.
func (a *Archive) WriteInputSizeStatistics(t time.Time, totalValues uint64) error {
	buf := make([]byte, 0, 16)
	buf = appendU64(buf, uint64(t.UnixNano()))
	buf = appendU64(buf, totalValues)

	a.mu.Lock()
	defer a.mu.Unlock()
	name := fmt.Sprintf("statistics/input-size-%08d.bin", a.entries)
	return a.writeRawLocked(name, buf, t)
}

// WriteSeed records the fuzzer's process seed under config/seed.bin, so a
// later replay can reproduce identical mutation decisions.
func (a *Archive) WriteSeed(seed uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seed)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writeRawLocked("config/seed.bin", buf[:], time.Now())
}

func appendU64(b []byte, v uint64) []byte {
	return append(b,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

func appendU32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (a *Archive) writeRaw(name string, data []byte, t time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writeRawLocked(name, data, t)
}

func (a *Archive) writeRawLocked(name string, data []byte, t time.Time) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: t,
	}
	if err := a.tw.WriteHeader(hdr); err != nil {
		return errorkind.Wrap(errorkind.Archive, err)
	}
	if _, err := a.tw.Write(data); err != nil {
		return errorkind.Wrap(errorkind.Archive, err)
	}
	return nil
}

// Close flushes and closes the tar, gzip and underlying file layers, in
// that order.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.tw.Close(); err != nil {
		return errorkind.Wrap(errorkind.Archive, err)
	}
	if err := a.gz.Close(); err != nil {
		return errorkind.Wrap(errorkind.Archive, err)
	}
	return a.f.Close()
}
