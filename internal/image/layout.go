package image

import (
	"sort"

	"github.com/joshuapare/flagkit/internal/remote"
)

// Section characteristics relevant to protection.
const (
	scnMemExecute = 0x20000000
	scnMemRead    = 0x40000000
	scnMemWrite   = 0x80000000
)

const pageSize = 0x1000

type section struct {
	Name            string
	VirtualAddress  uint64
	VirtualSize     uint64
	RawOffset       uint64
	RawSize         uint64
	Characteristics uint32
}

// span is the size the section occupies once mapped.
func (s section) span() uint64 {
	size := s.VirtualSize
	if size == 0 {
		size = s.RawSize
	}
	return alignUp(size, pageSize)
}

func (s section) protect() remote.Protect {
	var p remote.Protect
	if s.Characteristics&scnMemRead != 0 {
		p |= remote.ProtRead
	}
	if s.Characteristics&scnMemWrite != 0 {
		p |= remote.ProtWrite
	}
	if s.Characteristics&scnMemExecute != 0 {
		p |= remote.ProtExec
	}
	return p
}

type peLayout struct {
	preferredBase uint64
	sizeOfImage   uint64
	sizeOfHeaders uint64
	sections      []section
}

func alignUp(v, a uint64) uint64 {
	return (v + a - 1) &^ (a - 1)
}

// size is the mapped image size, never smaller than what the sections need.
func (l *peLayout) size() uint64 {
	size := alignUp(max(l.sizeOfImage, l.sizeOfHeaders), pageSize)
	for _, s := range l.sections {
		size = max(size, s.VirtualAddress+s.span())
	}
	return size
}

// virtual copies the file into its mapped layout. Raw data beyond the end of
// the file is left zeroed.
func (l *peLayout) virtual(file []byte) []byte {
	out := make([]byte, l.size())
	copy(out, file[:min(l.sizeOfHeaders, uint64(len(file)))])
	for _, s := range l.sections {
		if s.RawOffset >= uint64(len(file)) {
			continue
		}
		n := min(s.RawSize, s.span(), uint64(len(file))-s.RawOffset)
		copy(out[s.VirtualAddress:], file[s.RawOffset:s.RawOffset+n])
	}
	return out
}

// regions lists the header page and each section at base.
func (l *peLayout) regions(base uint64) []remote.Region {
	out := []remote.Region{{
		Base:    base,
		Size:    alignUp(max(l.sizeOfHeaders, 1), pageSize),
		State:   remote.StateCommit,
		Protect: remote.ProtRead,
	}}
	sections := append([]section(nil), l.sections...)
	sort.Slice(sections, func(i, j int) bool { return sections[i].VirtualAddress < sections[j].VirtualAddress })
	for _, s := range sections {
		out = append(out, remote.Region{
			Base:    base + s.VirtualAddress,
			Size:    s.span(),
			State:   remote.StateCommit,
			Protect: s.protect(),
		})
	}
	return out
}
