// Package layout houses the offsets and decoders for the foreign structures
// that make up the target's flag registry. Every offset the rest of the tree
// depends on lives here so a layout change in the target is a one-file edit.
//
// All structures are x64 and little-endian. Decoders operate on byte slices
// that were bulk-read from remote memory; they never perform remote reads
// themselves.
package layout

const (
	// TableOffset is the distance from the singleton to the embedded hash
	// table header. The first word of the singleton is its vtable.
	TableOffset = 0x8

	// TableHeaderSize is the number of bytes decoded for a table header.
	//
	//	Offset  Size  Field
	//	0x00    8     End sentinel node
	//	0x08    8     (unused)
	//	0x10    8     Bucket array
	//	0x18    16    (unused)
	//	0x28    8     Mask (bucket count - 1)
	//	0x30    8     Secondary mask
	TableHeaderSize = 0x38

	TableEndOffset     = 0x00
	TableBucketsOffset = 0x10
	TableMaskOffset    = 0x28
	TableMaskLOffset   = 0x30
)

const (
	// BucketSize is the stride of the bucket array. Each bucket holds the
	// first and the last node of its ring.
	BucketSize = 0x10

	BucketFirstOffset = 0x00
	BucketLastOffset  = 0x08
)

const (
	// EntrySize is the number of bytes decoded for a table entry.
	//
	//	Offset  Size  Field
	//	0x00    8     Back link
	//	0x08    8     Forward link
	//	0x10    32    Name (small string)
	//	0x30    8     Record address
	EntrySize = 0x38

	EntryBackOffset    = 0x00
	EntryForwardOffset = 0x08
	EntryNameOffset    = 0x10
	EntryRecordOffset  = 0x30
)

const (
	// StringSize is the size of an embedded small string.
	//
	//	Offset  Size  Field
	//	0x00    16    Inline bytes, or heap pointer in the first 8 bytes
	//	0x10    8     Length
	//	0x18    8     Capacity
	StringSize = 0x20

	StringBytesOffset    = 0x00
	StringLengthOffset   = 0x10
	StringCapacityOffset = 0x18

	// StringInlineCapacity is the largest capacity that keeps the bytes
	// inline. Anything larger lives on the heap.
	StringInlineCapacity = 0xF
)

const (
	// FlagSize is the number of bytes decoded for a flag record.
	//
	//	Offset  Size  Field
	//	0x00    8     Vtable
	//	0x08    0x90  (opaque)
	//	0x98    4     Flag type
	//	0x9C    4     Value kind
	//	0xA0    8     (opaque)
	//	0xA8    8     Value pointer
	FlagSize = 0xB0

	FlagVtableOffset = 0x00
	FlagTypeOffset   = 0x98
	FlagKindOffset   = 0x9C
	FlagValueOffset  = 0xA8
)

const (
	// Value string storage pointed to by the value pointer of a string flag.
	//
	//	Offset  Size  Field
	//	0x00    8     Data pointer
	//	0x08    8     Length
	//	0x10    8     Capacity
	ValueStringSize = 0x18

	ValueStringDataOffset     = 0x00
	ValueStringLengthOffset   = 0x08
	ValueStringCapacityOffset = 0x10
)

// Values the target leaves in the value pointer of an accessor that was
// declared but never bound to storage. They decode as "True" and "1001".
const (
	UnregisteredTrue = 0x65757254
	UnregisteredOnes = 0x31303031
)
