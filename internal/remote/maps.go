package remote

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// mapping is one line of a procfs maps file.
type mapping struct {
	Start   uint64
	End     uint64
	Protect Protect
	Offset  uint64
	Path    string
}

// parseMaps parses the procfs maps format:
//
//	7f1c2a400000-7f1c2a422000 r--p 00000000 08:01 1234   /usr/lib/libc.so.6
func parseMaps(r io.Reader) ([]mapping, error) {
	var out []mapping
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		m, err := parseMapsLine(text)
		if err != nil {
			return nil, fmt.Errorf("maps line %d: %w", line, err)
		}
		out = append(out, m)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func parseMapsLine(text string) (mapping, error) {
	fields := strings.Fields(text)
	if len(fields) < 5 {
		return mapping{}, fmt.Errorf("short line %q", text)
	}
	lo, hi, ok := strings.Cut(fields[0], "-")
	if !ok {
		return mapping{}, fmt.Errorf("bad range %q", fields[0])
	}
	start, err := strconv.ParseUint(lo, 16, 64)
	if err != nil {
		return mapping{}, err
	}
	end, err := strconv.ParseUint(hi, 16, 64)
	if err != nil {
		return mapping{}, err
	}
	off, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return mapping{}, err
	}
	var path string
	if len(fields) >= 6 {
		path = strings.Join(fields[5:], " ")
	}
	return mapping{
		Start:   start,
		End:     end,
		Protect: protectFromPerms(fields[1]),
		Offset:  off,
		Path:    path,
	}, nil
}

func protectFromPerms(perms string) Protect {
	var p Protect
	if len(perms) < 4 {
		return p
	}
	if perms[0] == 'r' {
		p |= ProtRead
	}
	if perms[1] == 'w' {
		p |= ProtWrite
	}
	if perms[2] == 'x' {
		p |= ProtExec
	}
	if perms[3] == 'p' && p&ProtWrite != 0 {
		p |= ProtCopy
	}
	return p
}

// moduleFromMaps folds every mapping backed by a file called name into one
// contiguous module span.
func moduleFromMaps(maps []mapping, name string) (Module, bool) {
	var mod Module
	found := false
	for _, m := range maps {
		if m.Path == "" || !SameName(filepath.Base(m.Path), name) {
			continue
		}
		if !found {
			mod = Module{Name: filepath.Base(m.Path), Path: m.Path, Base: m.Start, Size: m.End - m.Start}
			found = true
			continue
		}
		if m.Start < mod.Base {
			mod.Size += mod.Base - m.Start
			mod.Base = m.Start
		}
		if m.End > mod.End() {
			mod.Size = m.End - mod.Base
		}
	}
	return mod, found
}

// regionFromMaps describes the mapping containing addr, or the unmapped gap
// up to the next mapping.
func regionFromMaps(maps []mapping, addr uint64) (Region, bool) {
	for _, m := range maps {
		if addr < m.Start {
			return Region{Base: addr, Size: m.Start - addr, State: StateFree}, true
		}
		if addr < m.End {
			return Region{Base: m.Start, Size: m.End - m.Start, State: StateCommit, Protect: m.Protect}, true
		}
	}
	return Region{}, false
}
