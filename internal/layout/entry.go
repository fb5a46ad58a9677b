package layout

// String is an embedded small string. Short contents are stored inline,
// longer contents are reached through a pointer kept in the first eight
// inline bytes.
type String struct {
	Inline   [16]byte
	Length   uint64
	Capacity uint64
}

// IsInline reports whether the contents live in the inline buffer.
func (s String) IsInline() bool {
	return s.Capacity <= StringInlineCapacity
}

// Pointer returns the heap pointer of a non-inline string.
func (s String) Pointer() uint64 {
	return ReadU64(s.Inline[:], 0)
}

// InlineBytes returns the inline contents. The length is clamped to the
// inline buffer so a corrupt length cannot overrun it.
func (s String) InlineBytes() []byte {
	n := s.Length
	if n > uint64(len(s.Inline)) {
		n = uint64(len(s.Inline))
	}
	return s.Inline[:n]
}

// DecodeString decodes a small string.
func DecodeString(b []byte) (String, error) {
	if err := need(b, StringSize, "string"); err != nil {
		return String{}, err
	}
	var s String
	copy(s.Inline[:], b[StringBytesOffset:StringBytesOffset+16])
	s.Length = ReadU64(b, StringLengthOffset)
	s.Capacity = ReadU64(b, StringCapacityOffset)
	return s, nil
}

// Entry is one node of a bucket ring.
type Entry struct {
	Back    uint64
	Forward uint64
	Name    String
	Record  uint64
}

// DecodeEntry decodes a bucket ring node.
func DecodeEntry(b []byte) (Entry, error) {
	if err := need(b, EntrySize, "entry"); err != nil {
		return Entry{}, err
	}
	name, err := DecodeString(b[EntryNameOffset : EntryNameOffset+StringSize])
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Back:    ReadU64(b, EntryBackOffset),
		Forward: ReadU64(b, EntryForwardOffset),
		Name:    name,
		Record:  ReadU64(b, EntryRecordOffset),
	}, nil
}
