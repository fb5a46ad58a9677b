// Package remote provides typed access to the memory of another process.
//
// Everything above this package observes the target exclusively through the
// Memory interface. Reads never panic: a failed or partial read yields an
// empty buffer or a zero value, and a failed write yields false. The caller
// decides whether that matters.
package remote

import (
	"encoding/binary"
	"strings"

	"golang.org/x/text/cases"
)

// MaxReadSize bounds a single ReadBytes call. Sizes usually come from the
// target itself, so a corrupt length must fail the read rather than the
// allocation.
const MaxReadSize = 1 << 30

// Memory is the accessor surface shared by live processes, offline images,
// and test doubles.
type Memory interface {
	// ReadBytes reads size bytes at addr. It returns nil unless the full
	// range could be read.
	ReadBytes(addr, size uint64) []byte
	// WriteBytes writes p at addr and reports whether every byte landed.
	WriteBytes(addr uint64, p []byte) bool
	// Module looks up a loaded module by file name, case-insensitively.
	// The result is computed on every call.
	Module(name string) (Module, bool)
	// Query describes the region containing addr.
	Query(addr uint64) (Region, bool)
}

// Module is a loaded image inside the target.
type Module struct {
	Name string
	Path string
	Base uint64
	Size uint64
}

// End returns the first address past the module.
func (m Module) End() uint64 { return m.Base + m.Size }

// Contains reports whether addr falls inside the module.
func (m Module) Contains(addr uint64) bool {
	return addr >= m.Base && addr < m.End()
}

// Offset converts an absolute address to a module-relative one.
func (m Module) Offset(addr uint64) uint64 { return addr - m.Base }

// Rebase converts a module-relative offset to an absolute address.
func (m Module) Rebase(off uint64) uint64 { return m.Base + off }

// State is the allocation state of a region.
type State uint8

const (
	StateFree State = iota
	StateReserve
	StateCommit
)

// Protect is a platform-neutral page protection bit set.
type Protect uint8

const (
	ProtRead Protect = 1 << iota
	ProtWrite
	ProtExec
	ProtCopy
	ProtGuard
)

func (p Protect) String() string {
	var sb strings.Builder
	for _, f := range []struct {
		bit Protect
		ch  byte
	}{{ProtRead, 'r'}, {ProtWrite, 'w'}, {ProtExec, 'x'}, {ProtCopy, 'c'}, {ProtGuard, 'g'}} {
		if p&f.bit != 0 {
			sb.WriteByte(f.ch)
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// Region is a contiguous range of pages sharing state and protection.
type Region struct {
	Base    uint64
	Size    uint64
	State   State
	Protect Protect
}

// End returns the first address past the region.
func (r Region) End() uint64 { return r.Base + r.Size }

// Readable reports whether the region is committed, readable, and not a
// guard region.
func (r Region) Readable() bool {
	return r.State == StateCommit && r.Protect&ProtGuard == 0 && r.Protect&ProtRead != 0
}

// Scalar is the set of fixed-size values that can be read and written
// directly.
type Scalar interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 |
		~float32 | ~float64 | ~bool
}

// Read reads a little-endian T at addr. It returns the zero value when the
// read is short.
func Read[T Scalar](m Memory, addr uint64) T {
	var v T
	n := binary.Size(v)
	b := m.ReadBytes(addr, uint64(n))
	if len(b) != n {
		return v
	}
	if _, err := binary.Decode(b, binary.LittleEndian, &v); err != nil {
		var zero T
		return zero
	}
	return v
}

// Write writes v at addr in little-endian form.
func Write[T Scalar](m Memory, addr uint64, v T) bool {
	b, err := binary.Append(nil, binary.LittleEndian, v)
	if err != nil {
		return false
	}
	return m.WriteBytes(addr, b)
}

// ReadU64 reads a pointer-sized value.
func ReadU64(m Memory, addr uint64) uint64 {
	return Read[uint64](m, addr)
}

// ReadString reads n raw bytes at addr as a string.
func ReadString(m Memory, addr, n uint64) (string, bool) {
	if n == 0 {
		return "", true
	}
	if n > MaxReadSize {
		return "", false
	}
	b := m.ReadBytes(addr, n)
	if uint64(len(b)) != n {
		return "", false
	}
	return string(b), true
}

// SameName compares process or module names the way the platform loader
// does: ignoring case.
func SameName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}
