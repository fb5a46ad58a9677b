package resolve

import "errors"

var (
	// ErrPatternNotFound indicates the signature did not match anywhere in the module.
	ErrPatternNotFound = errors.New("resolve: pattern not found")
	// ErrInstructionRead indicates the instruction window after the match could not be read.
	ErrInstructionRead = errors.New("resolve: instruction read failed")
	// ErrDecode indicates the instruction window did not yield a target address.
	ErrDecode = errors.New("resolve: instruction decode failed")
)
