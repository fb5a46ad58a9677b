package resolve

import (
	"github.com/joshuapare/flagkit/internal/layout"
	"github.com/joshuapare/flagkit/internal/remote"
)

// Validator decides whether a rebased cache entry still points at a live
// singleton. slot is the module global the cached offset rebases to.
type Validator interface {
	Validate(mem remote.Memory, slot uint64) (singleton uint64, ok bool)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(mem remote.Memory, slot uint64) (uint64, bool)

// Validate implements Validator.
func (f ValidatorFunc) Validate(mem remote.Memory, slot uint64) (uint64, bool) {
	return f(mem, slot)
}

// TableValidator accepts a slot whose pointer leads to a table header with a
// non-zero mask and bucket array.
type TableValidator struct{}

// Validate implements Validator.
func (TableValidator) Validate(mem remote.Memory, slot uint64) (uint64, bool) {
	singleton := remote.ReadU64(mem, slot)
	if singleton == 0 {
		return 0, false
	}
	tbl, err := layout.DecodeTable(mem.ReadBytes(singleton+layout.TableOffset, layout.TableHeaderSize))
	if err != nil || !tbl.Ready() {
		return 0, false
	}
	return singleton, true
}
