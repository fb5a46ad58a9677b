package flag

import (
	"fmt"
	"strconv"

	"github.com/joshuapare/flagkit/internal/layout"
	"github.com/joshuapare/flagkit/internal/remote"
)

// maxDisplayString caps how much of a string value ReadValue fetches.
const maxDisplayString = 1 << 16

// Text reads a string value's current contents.
func (r *Record) Text() (string, bool) {
	if r == nil || r.snap.Value == 0 {
		return "", false
	}
	v, err := layout.DecodeValueString(r.mem.ReadBytes(r.snap.Value, layout.ValueStringSize))
	if err != nil || v.Length > maxDisplayString || v.Data == 0 {
		return "", false
	}
	return remote.ReadString(r.mem, v.Data, v.Length)
}

// Int reads a 32-bit value.
func (r *Record) Int() (int32, bool) {
	if r == nil || r.snap.Value == 0 {
		return 0, false
	}
	b := r.mem.ReadBytes(r.snap.Value, 4)
	if len(b) != 4 {
		return 0, false
	}
	return layout.ReadI32(b, 0), true
}

// ReadValue renders the current value according to the record's kind.
func (r *Record) ReadValue() (string, error) {
	if r.Unregistered() {
		return "", fmt.Errorf("flag at %#x: unregistered accessor", r.addr)
	}
	switch r.snap.Kind {
	case layout.KindString:
		s, ok := r.Text()
		if !ok {
			return "", fmt.Errorf("flag at %#x: string read failed", r.addr)
		}
		return s, nil
	case layout.KindFlag:
		v, ok := r.Int()
		if !ok {
			return "", fmt.Errorf("flag at %#x: value read failed", r.addr)
		}
		return strconv.FormatBool(v&0xFF != 0), nil
	case layout.KindInteger, layout.KindLog:
		v, ok := r.Int()
		if !ok {
			return "", fmt.Errorf("flag at %#x: value read failed", r.addr)
		}
		return strconv.FormatInt(int64(v), 10), nil
	default:
		return "", fmt.Errorf("flag at %#x: %w", r.addr, layout.ErrUnknownKind)
	}
}
