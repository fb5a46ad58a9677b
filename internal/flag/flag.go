// Package flag is a typed view over one flag record in the target.
//
// A Ref is an unresolved address: it may be zero, meaning the lookup found
// nothing. Resolving a Ref reads the record once and returns a Record
// holding that snapshot. The snapshot only changes through Refresh; writes
// go through the snapshot's value pointer and never re-read the record.
package flag

import (
	"github.com/joshuapare/flagkit/internal/layout"
	"github.com/joshuapare/flagkit/internal/remote"
)

// Ref is the address of a flag record, or zero.
type Ref struct {
	Address uint64
}

// Valid reports whether the ref points anywhere.
func (r Ref) Valid() bool { return r.Address != 0 }

// Resolve reads the record. It returns false for a zero ref or a failed read.
func (r Ref) Resolve(mem remote.Memory) (*Record, bool) {
	if !r.Valid() {
		return nil, false
	}
	rec := &Record{mem: mem, addr: r.Address}
	if !rec.Refresh() {
		return nil, false
	}
	return rec, true
}

// Record is a resolved flag record with a cached snapshot.
type Record struct {
	mem  remote.Memory
	addr uint64
	snap layout.Flag
}

// Address returns the record address.
func (r *Record) Address() uint64 { return r.addr }

// Snapshot returns the cached record fields.
func (r *Record) Snapshot() layout.Flag { return r.snap }

// Kind returns the cached value kind.
func (r *Record) Kind() layout.ValueKind { return r.snap.Kind }

// Unregistered reports whether the record is an accessor the target never
// bound to storage. Writing through it would hit a bogus pointer.
func (r *Record) Unregistered() bool { return r.snap.Unregistered() }

// Refresh re-reads the record. The previous snapshot is kept on failure.
func (r *Record) Refresh() bool {
	snap, err := layout.DecodeFlag(r.mem.ReadBytes(r.addr, layout.FlagSize))
	if err != nil {
		return false
	}
	r.snap = snap
	return true
}

// Set writes v to the value pointer of r's snapshot.
func Set[T remote.Scalar](r *Record, v T) bool {
	if r == nil || r.snap.Value == 0 {
		return false
	}
	return remote.Write(r.mem, r.snap.Value, v)
}

// SetBool writes a boolean the way the target stores it: as a 32-bit 0 or 1.
func (r *Record) SetBool(v bool) bool {
	var i int32
	if v {
		i = 1
	}
	return Set(r, i)
}

// SetInt writes a 32-bit integer.
func (r *Record) SetInt(v int32) bool { return Set(r, v) }

// SetString replaces the contents of a string value in place. The remote
// buffer is never grown: a value longer than the recorded capacity is
// rejected before anything is written.
func (r *Record) SetString(s string) bool {
	if r == nil || r.snap.Value == 0 {
		return false
	}
	base := r.snap.Value
	capacity := remote.ReadU64(r.mem, base+layout.ValueStringCapacityOffset)
	if uint64(len(s)) > capacity {
		return false
	}
	data := remote.ReadU64(r.mem, base+layout.ValueStringDataOffset)
	if data == 0 {
		return false
	}
	if !r.mem.WriteBytes(data, append([]byte(s), 0)) {
		return false
	}
	return remote.Write(r.mem, base+layout.ValueStringLengthOffset, uint64(len(s)))
}
