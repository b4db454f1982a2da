// Package streamctx defines the keys under which input streams live: the
// StreamContext (where an MMIO read happened) and InputContext (where plus
// what type), along with the process-wide monotonic input-file ID counter.
package streamctx

import (
	"fmt"
	"sync/atomic"

	"github.com/hoedur-go/hoedur/pkg/value"
)

// StreamKind discriminates the StreamContext variants.
type StreamKind uint8

const (
	// Access identifies an MMIO read by (pc, address) — the default policy.
	Access StreamKind = iota
	// Mmio identifies an MMIO read by address alone.
	Mmio
	// Custom identifies a stream by an opaque small integer id, for
	// non-MMIO-driven values (e.g. interrupt ordering).
	Custom
	// None is the single catch-all context for untagged reads.
	None
	// Interrupt identifies the stream feeding interrupt injection choices.
	Interrupt
)

// Policy selects which StreamKind new contexts are minted with. The source
// fixes this at compile time via a config constant; this module exposes it
// as a package variable defaulted to Access, set once at fuzzer startup.
var Policy = Access

// StreamContext is a hashable key identifying where an MMIO read occurred.
// It is intentionally a plain comparable struct (not an interface) so it can
// be used directly as a map key.
type StreamContext struct {
	Kind StreamKind
	PC   uint32
	Addr uint32
	ID   uint32
}

func AccessContext(pc, addr uint32) StreamContext {
	return StreamContext{Kind: Access, PC: pc, Addr: addr}
}
func MmioContext(addr uint32) StreamContext {
	return StreamContext{Kind: Mmio, Addr: addr}
}
func CustomContext(id uint32) StreamContext {
	return StreamContext{Kind: Custom, ID: id}
}
func NoneContext() StreamContext       { return StreamContext{Kind: None} }
func InterruptContext() StreamContext  { return StreamContext{Kind: Interrupt} }

func (c StreamContext) String() string {
	switch c.Kind {
	case Access:
		return fmt.Sprintf("%#x_mmio_%#x", c.PC, c.Addr)
	case Mmio:
		return fmt.Sprintf("mmio_%#x", c.Addr)
	case Custom:
		return fmt.Sprintf("custom_%d", c.ID)
	case None:
		return "none"
	case Interrupt:
		return "interrupt"
	}
	return "unknown"
}

// Less establishes a total order over StreamContext matching the source's
// Ord impl: by mmio address first, then pc, then kind/id — grouping reads to
// the same register together regardless of call site.
func (c StreamContext) Less(o StreamContext) bool {
	if c.Addr != o.Addr {
		return c.Addr < o.Addr
	}
	if c.PC != o.PC {
		return c.PC < o.PC
	}
	if c.Kind != o.Kind {
		return c.Kind < o.Kind
	}
	return c.ID < o.ID
}

// InputContext is the full key under which an input stream lives: where the
// read happened plus the type of value it must produce.
type InputContext struct {
	Stream StreamContext
	Type   value.Type
}

func NewInputContext(s StreamContext, t value.Type) InputContext {
	return InputContext{Stream: s, Type: t}
}

func (c InputContext) String() string {
	return fmt.Sprintf("%s/%s", c.Stream, c.Type.Kind)
}

// InputID uniquely and monotonically numbers input files.
type InputID uint64

// Counter is a process-wide atomic monotonic counter for InputID.
type Counter struct {
	next atomic.Uint64
}

// Reserve returns the next unused InputID.
func (c *Counter) Reserve() InputID {
	return InputID(c.next.Add(1) - 1)
}

// DefaultCounter is the process-wide counter used when no explicit Counter
// is threaded through (matches the source's single global AtomicUsize).
var DefaultCounter Counter
