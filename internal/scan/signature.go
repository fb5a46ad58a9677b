// Package scan finds byte signatures inside a module of a remote process.
//
// A signature is a byte pattern where some positions are wildcards. The
// scanner walks the module's readable regions, bulk-reads each one, and
// slides the pattern across the buffer. Matching is naive; signatures are
// short and the scan runs once per resolution.
package scan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultWildcard is the byte value that marks a wildcard position in a raw
// pattern. It is the int3 filler, which never appears in the operands the
// signatures are written against.
const DefaultWildcard = 0xCC

var (
	// ErrEmptySignature indicates a signature with no bytes.
	ErrEmptySignature = errors.New("scan: empty signature")
	// ErrBadToken indicates a signature text token that is neither hex nor a wildcard.
	ErrBadToken = errors.New("scan: bad signature token")
)

// Signature is an immutable byte pattern with a wildcard mask.
type Signature struct {
	pattern []byte
	mask    []bool // true = must match
}

// NewSignature builds a signature from raw bytes where every byte equal to
// wildcard matches anything.
func NewSignature(raw []byte, wildcard byte) Signature {
	s := Signature{
		pattern: append([]byte(nil), raw...),
		mask:    make([]bool, len(raw)),
	}
	for i, b := range raw {
		s.mask[i] = b != wildcard
	}
	return s
}

// MustParse is ParseSignature for package-level signatures.
func MustParse(text string) Signature {
	s, err := ParseSignature(text)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseSignature parses space separated hex bytes. "?", "??" and "**" are
// wildcards.
//
//	48 83 EC 38 48 8B 0D ?? ?? ?? ?? 4C 8D 05
func ParseSignature(text string) (Signature, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Signature{}, ErrEmptySignature
	}
	s := Signature{
		pattern: make([]byte, len(fields)),
		mask:    make([]bool, len(fields)),
	}
	for i, f := range fields {
		switch f {
		case "?", "??", "**":
			continue
		}
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(f), "0x"), 16, 8)
		if err != nil {
			return Signature{}, fmt.Errorf("%w: %q at %d", ErrBadToken, f, i)
		}
		s.pattern[i] = byte(v)
		s.mask[i] = true
	}
	return s, nil
}

// Len returns the pattern length.
func (s Signature) Len() int { return len(s.pattern) }

// Empty reports whether the signature has no bytes.
func (s Signature) Empty() bool { return len(s.pattern) == 0 }

// String renders the signature in ParseSignature syntax.
func (s Signature) String() string {
	var sb strings.Builder
	for i, b := range s.pattern {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if !s.mask[i] {
			sb.WriteString("??")
			continue
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// matchAt reports whether the signature matches buf at i.
func (s Signature) matchAt(buf []byte, i int) bool {
	for j, b := range s.pattern {
		if s.mask[j] && buf[i+j] != b {
			return false
		}
	}
	return true
}

// Index returns the offset of the first match in buf, or -1.
func (s Signature) Index(buf []byte) int {
	if s.Empty() {
		return -1
	}
	for i := 0; i+len(s.pattern) <= len(buf); i++ {
		if s.matchAt(buf, i) {
			return i
		}
	}
	return -1
}

// IndexAll returns the offsets of every match in buf. Matches may overlap.
func (s Signature) IndexAll(buf []byte) []int {
	if s.Empty() {
		return nil
	}
	var out []int
	for i := 0; i+len(s.pattern) <= len(buf); i++ {
		if s.matchAt(buf, i) {
			out = append(out, i)
		}
	}
	return out
}
