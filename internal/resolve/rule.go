package resolve

import (
	"github.com/joshuapare/flagkit/internal/layout"
	"github.com/joshuapare/flagkit/internal/scan"
	"golang.org/x/arch/x86/x86asm"
)

// Rule describes how to get from a signature match to the global that holds
// the singleton pointer.
type Rule struct {
	Signature scan.Signature

	// InstructionOffset is the distance from the match to the instruction
	// whose operand addresses the global.
	InstructionOffset uint64

	// WindowLength is how many bytes of that instruction to read.
	WindowLength uint64

	// Decoder turns the window into the global's address.
	Decoder Decoder
}

// Decoder computes the absolute address an instruction refers to.
type Decoder interface {
	Target(window []byte, at uint64) (uint64, bool)
}

// FixedDisplacement reads a signed 32-bit displacement at Offset within the
// window and resolves it relative to the end of the window.
type FixedDisplacement struct {
	Offset int
}

// Target implements Decoder.
func (d FixedDisplacement) Target(window []byte, at uint64) (uint64, bool) {
	if d.Offset < 0 || d.Offset+4 > len(window) {
		return 0, false
	}
	rel := int64(layout.ReadI32(window, d.Offset))
	return uint64(int64(at) + int64(len(window)) + rel), true
}

// X86 decodes the window as one 64-bit instruction and resolves its
// RIP-relative memory operand.
type X86 struct{}

// Target implements Decoder.
func (X86) Target(window []byte, at uint64) (uint64, bool) {
	inst, err := x86asm.Decode(window, 64)
	if err != nil {
		return 0, false
	}
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		mem, ok := arg.(x86asm.Mem)
		if !ok || mem.Base != x86asm.RIP {
			continue
		}
		return uint64(int64(at) + int64(inst.Len) + mem.Disp), true
	}
	return 0, false
}

// SingletonSignature locates the function prologue that loads the flag
// registry singleton:
//
//	48 83 EC 38          sub rsp, 38h
//	48 8B 0D xx xx xx xx mov rcx, [rip+disp32]
//	4C 8D 05             lea r8, ...
var SingletonSignature = scan.NewSignature([]byte{
	0x48, 0x83, 0xEC, 0x38, 0x48, 0x8B, 0x0D, 0xCC, 0xCC, 0xCC, 0xCC, 0x4C, 0x8D, 0x05,
}, scan.DefaultWildcard)

// DefaultRule resolves the singleton through the mov rcx at match+4.
func DefaultRule() Rule {
	return Rule{
		Signature:         SingletonSignature,
		InstructionOffset: 4,
		WindowLength:      7,
		Decoder:           FixedDisplacement{Offset: 3},
	}
}
