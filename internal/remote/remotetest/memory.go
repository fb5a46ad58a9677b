// Package remotetest provides an in-process stand-in for a target's address
// space, plus builders that lay out a flag registry inside it.
package remotetest

import (
	"encoding/binary"
	"sort"

	"github.com/joshuapare/flagkit/internal/remote"
)

// HeapBase is where Alloc starts handing out memory.
const (
	HeapBase = 0x7ff0_0000_0000
	HeapSize = 4 << 20
)

// Write records one successful WriteBytes call.
type Write struct {
	Addr uint64
	Data []byte
}

type region struct {
	base     uint64
	data     []byte
	state    remote.State
	protect  remote.Protect
	failRead bool
}

func (r *region) end() uint64 { return r.base + uint64(len(r.data)) }

// Memory is a synthetic address space. It is not safe for concurrent use.
type Memory struct {
	regions []*region
	modules []remote.Module
	noQuery map[uint64]bool
	next    uint64

	Writes  []Write
	Reads   int
	Queries int
	// LargestRead is the biggest size ever passed to ReadBytes.
	LargestRead uint64
}

var _ remote.Memory = (*Memory)(nil)

// New returns an address space with an empty read-write heap.
func New() *Memory {
	m := &Memory{noQuery: map[uint64]bool{}, next: HeapBase}
	m.Map(HeapBase, make([]byte, HeapSize), remote.ProtRead|remote.ProtWrite)
	return m
}

// Map installs committed memory at base.
func (m *Memory) Map(base uint64, data []byte, prot remote.Protect) {
	m.insert(&region{base: base, data: data, state: remote.StateCommit, protect: prot})
}

// Reserve installs an uncommitted range.
func (m *Memory) Reserve(base, size uint64) {
	m.insert(&region{base: base, data: make([]byte, size), state: remote.StateReserve})
}

// FailReads makes every read of the region at base fail while Query still
// reports it readable.
func (m *Memory) FailReads(base uint64) {
	for _, r := range m.regions {
		if r.base == base {
			r.failRead = true
		}
	}
}

// FailQuery makes Query fail for any address in [base, base+size).
func (m *Memory) FailQuery(base, size uint64) {
	for a := base; a < base+size; a += 0x1000 {
		m.noQuery[a&^0xFFF] = true
	}
}

// AddModule registers a module name for Module lookups.
func (m *Memory) AddModule(mod remote.Module) {
	m.modules = append(m.modules, mod)
}

func (m *Memory) insert(r *region) {
	m.regions = append(m.regions, r)
	sort.Slice(m.regions, func(i, j int) bool { return m.regions[i].base < m.regions[j].base })
}

func (m *Memory) find(addr, size uint64) *region {
	for _, r := range m.regions {
		if addr >= r.base && addr+size <= r.end() && addr+size >= addr {
			return r
		}
	}
	return nil
}

// Alloc returns size bytes of zeroed heap, 16-byte aligned.
func (m *Memory) Alloc(size uint64) uint64 {
	addr := m.next
	m.next += (size + 15) &^ 15
	if m.next > HeapBase+HeapSize {
		panic("remotetest: heap exhausted")
	}
	return addr
}

// Poke writes without recording a Write.
func (m *Memory) Poke(addr uint64, p []byte) {
	r := m.find(addr, uint64(len(p)))
	if r == nil {
		panic("remotetest: poke outside mapped memory")
	}
	copy(r.data[addr-r.base:], p)
}

// PokeU64 writes a little-endian uint64 without recording a Write.
func (m *Memory) PokeU64(addr, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	m.Poke(addr, b[:])
}

// PokeU32 writes a little-endian uint32 without recording a Write.
func (m *Memory) PokeU32(addr uint64, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	m.Poke(addr, b[:])
}

// Peek returns a copy of n bytes at addr.
func (m *Memory) Peek(addr, n uint64) []byte {
	r := m.find(addr, n)
	if r == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, r.data[addr-r.base:])
	return out
}

// PeekU64 reads a little-endian uint64 at addr.
func (m *Memory) PeekU64(addr uint64) uint64 {
	b := m.Peek(addr, 8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// ReadBytes implements remote.Memory.
func (m *Memory) ReadBytes(addr, size uint64) []byte {
	m.Reads++
	m.LargestRead = max(m.LargestRead, size)
	if size == 0 || size > remote.MaxReadSize {
		return nil
	}
	r := m.find(addr, size)
	if r == nil || r.failRead || r.state != remote.StateCommit {
		return nil
	}
	out := make([]byte, size)
	copy(out, r.data[addr-r.base:])
	return out
}

// WriteBytes implements remote.Memory.
func (m *Memory) WriteBytes(addr uint64, p []byte) bool {
	if len(p) == 0 {
		return false
	}
	r := m.find(addr, uint64(len(p)))
	if r == nil || r.state != remote.StateCommit {
		return false
	}
	copy(r.data[addr-r.base:], p)
	m.Writes = append(m.Writes, Write{Addr: addr, Data: append([]byte(nil), p...)})
	return true
}

// Module implements remote.Memory.
func (m *Memory) Module(name string) (remote.Module, bool) {
	for _, mod := range m.modules {
		if remote.SameName(mod.Name, name) {
			return mod, true
		}
	}
	return remote.Module{}, false
}

// Query implements remote.Memory.
func (m *Memory) Query(addr uint64) (remote.Region, bool) {
	m.Queries++
	if m.noQuery[addr&^0xFFF] {
		return remote.Region{}, false
	}
	for _, r := range m.regions {
		if addr < r.base {
			return remote.Region{Base: addr, Size: r.base - addr, State: remote.StateFree}, true
		}
		if addr < r.end() {
			return remote.Region{Base: r.base, Size: uint64(len(r.data)), State: r.state, Protect: r.protect}, true
		}
	}
	return remote.Region{}, false
}
