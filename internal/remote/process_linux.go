//go:build linux

package remote

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// Process is an attached target process.
type Process struct {
	pid  uint32
	name string
	mem  *os.File // /proc/<pid>/mem, used when process_vm_* is refused
	once sync.Once
}

// PID returns the process id.
func (p *Process) PID() uint32 { return p.pid }

// Name returns the executable name used to attach.
func (p *Process) Name() string { return p.name }

// Close releases the memory file. Later calls are no-ops.
func (p *Process) Close() error {
	var err error
	p.once.Do(func() {
		if p.mem != nil {
			err = p.mem.Close()
			p.mem = nil
		}
	})
	return err
}

func findProcess(name string) (uint32, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return 0, fmt.Errorf("read /proc: %w", err)
	}
	for _, e := range entries {
		pid, err := strconv.ParseUint(e.Name(), 10, 32)
		if err != nil {
			continue
		}
		if processNameMatches(uint32(pid), name) {
			return uint32(pid), nil
		}
	}
	return 0, ErrProcessNotFound
}

func processNameMatches(pid uint32, name string) bool {
	dir := filepath.Join("/proc", strconv.FormatUint(uint64(pid), 10))
	if exe, err := os.Readlink(filepath.Join(dir, "exe")); err == nil {
		if SameName(filepath.Base(strings.TrimSuffix(exe, " (deleted)")), name) {
			return true
		}
	}
	if cmdline, err := os.ReadFile(filepath.Join(dir, "cmdline")); err == nil {
		argv0, _, _ := bytes.Cut(cmdline, []byte{0})
		if len(argv0) > 0 && SameName(filepath.Base(string(argv0)), name) {
			return true
		}
	}
	return false
}

func openProcess(pid uint32, name string) (*Process, error) {
	if err := unix.Kill(int(pid), 0); err != nil {
		return nil, fmt.Errorf("signal probe %d: %w", pid, err)
	}
	p := &Process{pid: pid, name: name}
	path := filepath.Join("/proc", strconv.FormatUint(uint64(pid), 10), "mem")
	if f, err := os.OpenFile(path, os.O_RDWR, 0); err == nil {
		p.mem = f
	} else if f, err := os.Open(path); err == nil {
		p.mem = f
	}
	return p, nil
}

// ReadBytes implements Memory.
func (p *Process) ReadBytes(addr, size uint64) []byte {
	if size == 0 || size > MaxReadSize {
		return nil
	}
	buf := make([]byte, size)
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(int(size))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: int(size)}}
	if n, err := unix.ProcessVMReadv(int(p.pid), local, remote, 0); err == nil && uint64(n) == size {
		return buf
	}
	if p.mem != nil {
		if n, err := p.mem.ReadAt(buf, int64(addr)); err == nil && uint64(n) == size {
			return buf
		}
	}
	return nil
}

// WriteBytes implements Memory.
func (p *Process) WriteBytes(addr uint64, data []byte) bool {
	if len(data) == 0 {
		return false
	}
	local := []unix.Iovec{{Base: &data[0]}}
	local[0].SetLen(len(data))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(data)}}
	if n, err := unix.ProcessVMWritev(int(p.pid), local, remote, 0); err == nil && n == len(data) {
		return true
	}
	// process_vm_writev honours page protections; /proc/<pid>/mem does not.
	if p.mem != nil {
		n, err := p.mem.WriteAt(data, int64(addr))
		return err == nil && n == len(data)
	}
	return false
}

func (p *Process) maps() []mapping {
	f, err := os.Open(filepath.Join("/proc", strconv.FormatUint(uint64(p.pid), 10), "maps"))
	if err != nil {
		return nil
	}
	defer f.Close()
	maps, err := parseMaps(f)
	if err != nil {
		return nil
	}
	return maps
}

// Module implements Memory.
func (p *Process) Module(name string) (Module, bool) {
	return moduleFromMaps(p.maps(), name)
}

// Query implements Memory.
func (p *Process) Query(addr uint64) (Region, bool) {
	return regionFromMaps(p.maps(), addr)
}

// The debug privilege has no procfs equivalent; ptrace scope governs access.
func enableDebugPrivilege() error { return nil }
