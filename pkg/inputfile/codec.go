package inputfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/hoedur-go/hoedur/pkg/inputstream"
	"github.com/hoedur-go/hoedur/pkg/streamctx"
	"github.com/hoedur-go/hoedur/pkg/value"
)

// On-disk format (§6.2): self-describing, little-endian.
//
//	u64 id
//	u32 stream_count
//	for each stream, sorted by InputContext for determinism:
//	  u8  stream_kind
//	  u32 pc
//	  u32 addr
//	  u32 custom_id
//	  u8  value_kind
//	  u8  value_width   (Bits)
//	  u16 value_count   (Choice)
//	  u32 value_count
//	  value_count * value bytes (ByteWidth() each)
//
// parent/random_seed/random_count/read_limit are never persisted.

func (f *File) contextsSorted() []streamctx.InputContext {
	ctxs := make([]streamctx.InputContext, 0, len(f.Streams))
	for c := range f.Streams {
		ctxs = append(ctxs, c)
	}
	sort.Slice(ctxs, func(i, j int) bool {
		if ctxs[i].Stream != ctxs[j].Stream {
			return ctxs[i].Stream.Less(ctxs[j].Stream)
		}
		return ctxs[i].Type.Kind < ctxs[j].Type.Kind
	})
	return ctxs
}

// WriteTo serializes f to w in the on-disk format.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	buf := &bytes.Buffer{}
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], uint64(f.ID))
	buf.Write(u64[:])

	ctxs := f.contextsSorted()
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(ctxs)))
	buf.Write(u32[:])

	for _, c := range ctxs {
		s := f.Streams[c]
		buf.WriteByte(byte(c.Stream.Kind))
		binary.LittleEndian.PutUint32(u32[:], c.Stream.PC)
		buf.Write(u32[:])
		binary.LittleEndian.PutUint32(u32[:], c.Stream.Addr)
		buf.Write(u32[:])
		binary.LittleEndian.PutUint32(u32[:], c.Stream.ID)
		buf.Write(u32[:])

		buf.WriteByte(byte(c.Type.Kind))
		buf.WriteByte(c.Type.Width)
		var u16 [2]byte
		binary.LittleEndian.PutUint16(u16[:], c.Type.Count)
		buf.Write(u16[:])

		values := s.Values()
		binary.LittleEndian.PutUint32(u32[:], uint32(len(values)))
		buf.Write(u32[:])
		for _, v := range values {
			buf.Write(v.ToBytes())
		}
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// WriteSize returns the exact number of bytes WriteTo will emit.
func (f *File) WriteSize() (int64, error) {
	buf := &bytes.Buffer{}
	if _, err := f.WriteTo(buf); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}

// ReadFrom deserializes a File from r. Parent/RandomSeed/RandomCount/ReadLimit
// are left absent, and every stream's cursor is zero, per §6.2.
func ReadFrom(r io.Reader) (*File, error) {
	var u64 [8]byte
	if _, err := io.ReadFull(r, u64[:]); err != nil {
		return nil, fmt.Errorf("inputfile: read id: %w", err)
	}
	f := &File{
		ID:      streamctx.InputID(binary.LittleEndian.Uint64(u64[:])),
		Streams: make(map[streamctx.InputContext]*inputstream.Stream),
	}

	var u32 [4]byte
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, fmt.Errorf("inputfile: read stream count: %w", err)
	}
	count := binary.LittleEndian.Uint32(u32[:])

	for i := uint32(0); i < count; i++ {
		var kindByte [1]byte
		if _, err := io.ReadFull(r, kindByte[:]); err != nil {
			return nil, fmt.Errorf("inputfile: read stream kind: %w", err)
		}
		sc := streamctx.StreamContext{Kind: streamctx.StreamKind(kindByte[0])}

		if _, err := io.ReadFull(r, u32[:]); err != nil {
			return nil, err
		}
		sc.PC = binary.LittleEndian.Uint32(u32[:])
		if _, err := io.ReadFull(r, u32[:]); err != nil {
			return nil, err
		}
		sc.Addr = binary.LittleEndian.Uint32(u32[:])
		if _, err := io.ReadFull(r, u32[:]); err != nil {
			return nil, err
		}
		sc.ID = binary.LittleEndian.Uint32(u32[:])

		var typeKind [1]byte
		if _, err := io.ReadFull(r, typeKind[:]); err != nil {
			return nil, err
		}
		var width [1]byte
		if _, err := io.ReadFull(r, width[:]); err != nil {
			return nil, err
		}
		var u16 [2]byte
		if _, err := io.ReadFull(r, u16[:]); err != nil {
			return nil, err
		}
		t := value.Type{Kind: value.Kind(typeKind[0]), Width: width[0], Count: binary.LittleEndian.Uint16(u16[:])}

		if _, err := io.ReadFull(r, u32[:]); err != nil {
			return nil, err
		}
		valueCount := binary.LittleEndian.Uint32(u32[:])

		values := make([]value.Value, 0, valueCount)
		width8 := t.ByteWidth()
		raw := make([]byte, width8)
		for j := uint32(0); j < valueCount; j++ {
			if _, err := io.ReadFull(r, raw); err != nil {
				return nil, fmt.Errorf("inputfile: read value %d: %w", j, err)
			}
			v, err := value.FromBytes(t, raw)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}

		ctx := streamctx.InputContext{Stream: sc, Type: t}
		f.Streams[ctx] = inputstream.FromValues(t, values)
	}

	return f, nil
}
