package layout

import "fmt"

// ValueKind is the storage kind of a flag value.
type ValueKind uint32

const (
	KindLog     ValueKind = 1
	KindString  ValueKind = 2
	KindInteger ValueKind = 3
	KindFlag    ValueKind = 4
)

// String returns the lowercase name of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindLog:
		return "log"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFlag:
		return "flag"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

// Valid reports whether k is one of the known kinds.
func (k ValueKind) Valid() bool {
	return k >= KindLog && k <= KindFlag
}

// ParseValueKind maps a kind name back to its value.
func ParseValueKind(s string) (ValueKind, error) {
	switch s {
	case "log":
		return KindLog, nil
	case "string":
		return KindString, nil
	case "integer", "int":
		return KindInteger, nil
	case "flag", "bool":
		return KindFlag, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// FlagType is the registration class of a flag. It is a bit set.
type FlagType uint32

const (
	TypeConstant FlagType = 1
	TypeDynamic  FlagType = 2
	TypeSync     FlagType = 4
	TypeAny      FlagType = 127
)

func (t FlagType) String() string {
	switch t {
	case TypeConstant:
		return "constant"
	case TypeDynamic:
		return "dynamic"
	case TypeSync:
		return "sync"
	case TypeAny:
		return "any"
	default:
		return fmt.Sprintf("type(0x%x)", uint32(t))
	}
}

// Flag is a decoded flag record.
type Flag struct {
	Vtable uint64
	Type   FlagType
	Kind   ValueKind
	Value  uint64
}

// Unregistered reports whether the record's value pointer still holds one of
// the placeholder values used for unbound accessors.
func (f Flag) Unregistered() bool {
	return f.Value == UnregisteredTrue || f.Value == UnregisteredOnes
}

// DecodeFlag decodes a flag record.
func DecodeFlag(b []byte) (Flag, error) {
	if err := need(b, FlagSize, "flag"); err != nil {
		return Flag{}, err
	}
	return Flag{
		Vtable: ReadU64(b, FlagVtableOffset),
		Type:   FlagType(ReadU32(b, FlagTypeOffset)),
		Kind:   ValueKind(ReadU32(b, FlagKindOffset)),
		Value:  ReadU64(b, FlagValueOffset),
	}, nil
}

// ValueString is the storage a string flag's value pointer refers to.
type ValueString struct {
	Data     uint64
	Length   uint64
	Capacity uint64
}

// DecodeValueString decodes string value storage.
func DecodeValueString(b []byte) (ValueString, error) {
	if err := need(b, ValueStringSize, "value string"); err != nil {
		return ValueString{}, err
	}
	return ValueString{
		Data:     ReadU64(b, ValueStringDataOffset),
		Length:   ReadU64(b, ValueStringLengthOffset),
		Capacity: ReadU64(b, ValueStringCapacityOffset),
	}, nil
}
