// Package image exposes a module file on disk through remote.Memory so that
// signatures and resolution rules can be checked without a running target.
//
// PE files are laid out the way the loader would map them: headers at the
// image base, each section at its virtual address with protections taken
// from its characteristics. Anything else is exposed as one flat readable
// region.
package image

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
	"github.com/saferwall/pe"

	"github.com/joshuapare/flagkit/internal/remote"
)

// ErrEmpty indicates a zero-length file.
var ErrEmpty = errors.New("image: empty file")

// Options configures Open.
type Options struct {
	// Base overrides the load address. Zero keeps the PE preferred base,
	// or zero for flat files.
	Base uint64
	// Flat skips PE parsing.
	Flat bool
}

// Image is a read-only module image.
type Image struct {
	module  remote.Module
	data    []byte
	regions []remote.Region
	flat    bool
	mapping mmap.MMap
}

var _ remote.Memory = (*Image)(nil)

// Open maps the file at path.
func Open(path string, opts Options) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	img := &Image{mapping: m}
	name := filepath.Base(path)

	if !opts.Flat {
		if l, err := parsePE(m); err == nil {
			base := l.preferredBase
			if opts.Base != 0 {
				base = opts.Base
			}
			img.data = l.virtual(m)
			img.regions = l.regions(base)
			img.module = remote.Module{Name: name, Path: path, Base: base, Size: uint64(len(img.data))}
			// The virtual copy owns its bytes; the mapping is no longer needed.
			if err := m.Unmap(); err != nil {
				return nil, err
			}
			img.mapping = nil
			return img, nil
		}
	}

	img.flat = true
	img.data = m
	img.module = remote.Module{Name: name, Path: path, Base: opts.Base, Size: uint64(len(m))}
	img.regions = []remote.Region{{
		Base:    opts.Base,
		Size:    uint64(len(m)),
		State:   remote.StateCommit,
		Protect: remote.ProtRead | remote.ProtExec,
	}}
	return img, nil
}

// Close releases the mapping.
func (img *Image) Close() error {
	if img.mapping == nil {
		return nil
	}
	err := img.mapping.Unmap()
	img.mapping = nil
	img.data = nil
	return err
}

// Flat reports whether the file was exposed without PE layout.
func (img *Image) Flat() bool { return img.flat }

// Bounds returns the module the file describes.
func (img *Image) Bounds() remote.Module { return img.module }

// Regions returns the mapped regions in address order.
func (img *Image) Regions() []remote.Region { return img.regions }

// ReadBytes implements remote.Memory.
func (img *Image) ReadBytes(addr, size uint64) []byte {
	if size == 0 || addr < img.module.Base {
		return nil
	}
	off := addr - img.module.Base
	if off+size < off || off+size > uint64(len(img.data)) {
		return nil
	}
	return append([]byte(nil), img.data[off:off+size]...)
}

// WriteBytes implements remote.Memory. Images are read-only.
func (img *Image) WriteBytes(uint64, []byte) bool { return false }

// Module implements remote.Memory. Any name resolves to the image itself,
// since a file holds exactly one module.
func (img *Image) Module(string) (remote.Module, bool) {
	return img.module, true
}

// Query implements remote.Memory.
func (img *Image) Query(addr uint64) (remote.Region, bool) {
	for _, r := range img.regions {
		if addr < r.Base {
			return remote.Region{Base: addr, Size: r.Base - addr, State: remote.StateFree}, true
		}
		if addr < r.End() {
			return r, true
		}
	}
	return remote.Region{}, false
}

// parsePE reads the headers and section table through saferwall's parser.
func parsePE(data []byte) (*peLayout, error) {
	file, err := pe.NewBytes(data, &pe.Options{Fast: true})
	if err != nil {
		return nil, err
	}
	if err := file.Parse(); err != nil {
		return nil, err
	}

	l := &peLayout{}
	switch oh := file.NtHeader.OptionalHeader.(type) {
	case pe.ImageOptionalHeader64:
		l.preferredBase = oh.ImageBase
		l.sizeOfImage = uint64(oh.SizeOfImage)
		l.sizeOfHeaders = uint64(oh.SizeOfHeaders)
	case *pe.ImageOptionalHeader64:
		l.preferredBase = oh.ImageBase
		l.sizeOfImage = uint64(oh.SizeOfImage)
		l.sizeOfHeaders = uint64(oh.SizeOfHeaders)
	case pe.ImageOptionalHeader32:
		l.preferredBase = uint64(oh.ImageBase)
		l.sizeOfImage = uint64(oh.SizeOfImage)
		l.sizeOfHeaders = uint64(oh.SizeOfHeaders)
	default:
		return nil, fmt.Errorf("image: unexpected optional header %T", oh)
	}
	for _, s := range file.Sections {
		l.sections = append(l.sections, section{
			Name:            s.NameString(),
			VirtualAddress:  uint64(s.Header.VirtualAddress),
			VirtualSize:     uint64(s.Header.VirtualSize),
			RawOffset:       uint64(s.Header.PointerToRawData),
			RawSize:         uint64(s.Header.SizeOfRawData),
			Characteristics: s.Header.Characteristics,
		})
	}
	return l, nil
}
