package remotetest

import (
	"hash/fnv"

	"github.com/joshuapare/flagkit/internal/layout"
	"github.com/joshuapare/flagkit/internal/remote"
)

// Flag describes one entry to place in a synthetic registry.
type Flag struct {
	Name string
	Kind layout.ValueKind
	Type layout.FlagType

	// Int is the initial value for integer, log, and flag kinds.
	Int int32
	// Str and Capacity describe string storage. Capacity defaults to
	// len(Str) rounded up to 15.
	Str      string
	Capacity uint64

	// Unregistered leaves a placeholder in the value pointer.
	Unregistered bool
}

// Registry is a flag table laid out inside a Memory.
type Registry struct {
	Singleton uint64
	End       uint64
	Buckets   uint64
	Mask      uint64
	Records   map[string]uint64
	Values    map[string]uint64
	Nodes     map[string]uint64
}

// Hash is the registry's key hash.
func Hash(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return h.Sum64()
}

// BuildRegistry allocates a singleton whose table holds flags. mask is the
// bucket mask, so the table has mask+1 buckets. Flags sharing a bucket are
// chained in the order given.
func BuildRegistry(m *Memory, mask uint64, flags []Flag) *Registry {
	if mask == 0 {
		panic("remotetest: a zero mask marks the table as never ready")
	}
	reg := &Registry{
		Mask:    mask,
		Records: map[string]uint64{},
		Values:  map[string]uint64{},
		Nodes:   map[string]uint64{},
	}
	reg.Singleton = m.Alloc(layout.TableOffset + layout.TableHeaderSize)
	reg.End = m.Alloc(layout.EntrySize)
	reg.Buckets = m.Alloc((mask + 1) * layout.BucketSize)

	chains := make(map[uint64][]uint64)
	for _, f := range flags {
		node := m.Alloc(layout.EntrySize)
		rec := buildRecord(m, f)
		writeName(m, node+layout.EntryNameOffset, f.Name)
		m.PokeU64(node+layout.EntryRecordOffset, rec)
		reg.Nodes[f.Name] = node
		reg.Records[f.Name] = rec
		reg.Values[f.Name] = m.PeekU64(rec + layout.FlagValueOffset)

		idx := Hash(f.Name) & mask
		chains[idx] = append(chains[idx], node)
	}

	for idx := uint64(0); idx <= mask; idx++ {
		bucket := reg.Buckets + idx*layout.BucketSize
		nodes := chains[idx]
		if len(nodes) == 0 {
			m.PokeU64(bucket+layout.BucketFirstOffset, reg.End)
			m.PokeU64(bucket+layout.BucketLastOffset, reg.End)
			continue
		}
		LinkBucket(m, bucket, reg.End, nodes)
	}

	header := reg.Singleton + layout.TableOffset
	m.PokeU64(header+layout.TableEndOffset, reg.End)
	m.PokeU64(header+layout.TableBucketsOffset, reg.Buckets)
	m.PokeU64(header+layout.TableMaskOffset, mask)
	m.PokeU64(header+layout.TableMaskLOffset, mask)
	return reg
}

// LinkBucket chains nodes into the bucket's ring. The bucket's last node
// leads through the forward links back to its first node.
func LinkBucket(m *Memory, bucket, end uint64, nodes []uint64) {
	first, last := nodes[0], nodes[len(nodes)-1]
	m.PokeU64(bucket+layout.BucketFirstOffset, first)
	m.PokeU64(bucket+layout.BucketLastOffset, last)
	for i, n := range nodes {
		fwd, back := end, end
		if i > 0 {
			fwd = nodes[i-1]
		}
		if i < len(nodes)-1 {
			back = nodes[i+1]
		}
		m.PokeU64(n+layout.EntryForwardOffset, fwd)
		m.PokeU64(n+layout.EntryBackOffset, back)
	}
}

// SetReady overwrites the table header's mask and bucket pointer.
func (r *Registry) SetReady(m *Memory, ready bool) {
	header := r.Singleton + layout.TableOffset
	if ready {
		m.PokeU64(header+layout.TableMaskOffset, r.Mask)
		m.PokeU64(header+layout.TableBucketsOffset, r.Buckets)
		return
	}
	m.PokeU64(header+layout.TableMaskOffset, 0)
	m.PokeU64(header+layout.TableBucketsOffset, 0)
}

func writeName(m *Memory, at uint64, name string) {
	size := uint64(len(name))
	if size <= layout.StringInlineCapacity {
		m.Poke(at+layout.StringBytesOffset, []byte(name))
		m.PokeU64(at+layout.StringCapacityOffset, layout.StringInlineCapacity)
	} else {
		heap := m.Alloc(size + 1)
		m.Poke(heap, []byte(name))
		m.PokeU64(at+layout.StringBytesOffset, heap)
		m.PokeU64(at+layout.StringCapacityOffset, size|layout.StringInlineCapacity)
	}
	m.PokeU64(at+layout.StringLengthOffset, size)
}

func buildRecord(m *Memory, f Flag) uint64 {
	rec := m.Alloc(layout.FlagSize)
	m.PokeU64(rec+layout.FlagVtableOffset, 0x1400_0000)
	typ := f.Type
	if typ == 0 {
		typ = layout.TypeDynamic
	}
	m.PokeU32(rec+layout.FlagTypeOffset, uint32(typ))
	m.PokeU32(rec+layout.FlagKindOffset, uint32(f.Kind))

	var value uint64
	switch {
	case f.Unregistered:
		value = layout.UnregisteredTrue
	case f.Kind == layout.KindString:
		capacity := f.Capacity
		if capacity == 0 {
			capacity = uint64(len(f.Str)) | layout.StringInlineCapacity
		}
		value = m.Alloc(layout.ValueStringSize)
		data := m.Alloc(capacity + 1)
		m.Poke(data, append([]byte(f.Str), 0))
		m.PokeU64(value+layout.ValueStringDataOffset, data)
		m.PokeU64(value+layout.ValueStringLengthOffset, uint64(len(f.Str)))
		m.PokeU64(value+layout.ValueStringCapacityOffset, capacity)
	default:
		value = m.Alloc(8)
		m.PokeU32(value, uint32(f.Int))
	}
	m.PokeU64(rec+layout.FlagValueOffset, value)
	return rec
}

// Singleton instruction sequence: sub rsp,38h; mov rcx,[rip+rel32]; lea r8,...
var SingletonCode = []byte{0x48, 0x83, 0xEC, 0x38, 0x48, 0x8B, 0x0D, 0, 0, 0, 0, 0x4C, 0x8D, 0x05}

// Image describes a module laid into a Memory by BuildImage.
type Image struct {
	Module remote.Module
	// Match is the address of the instruction sequence.
	Match uint64
	// Slot is the module global holding the singleton pointer.
	Slot uint64
}

// BuildImage maps a module at base with a text section holding
// SingletonCode at codeOff and a data section whose global at slotOff points
// to singleton. The text and data sections are each size/2 bytes.
func BuildImage(m *Memory, name string, base, size, codeOff, slotOff, singleton uint64) *Image {
	half := size / 2
	text := make([]byte, half)
	data := make([]byte, size-half)

	match := base + codeOff
	slot := base + slotOff
	code := append([]byte(nil), SingletonCode...)
	rel := int32(int64(slot) - int64(match+4+7))
	putI32(code[7:], rel)
	copy(text[codeOff:], code)

	m.Map(base, text, remote.ProtRead|remote.ProtExec)
	m.Map(base+half, data, remote.ProtRead|remote.ProtWrite)
	m.PokeU64(slot, singleton)

	mod := remote.Module{Name: name, Path: `C:\target\` + name, Base: base, Size: size}
	m.AddModule(mod)
	return &Image{Module: mod, Match: match, Slot: slot}
}

func putI32(b []byte, v int32) {
	u := uint32(v)
	b[0], b[1], b[2], b[3] = byte(u), byte(u>>8), byte(u>>16), byte(u>>24)
}
