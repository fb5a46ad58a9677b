//go:build windows

package remote

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Process is an open handle to a live target process.
type Process struct {
	handle windows.Handle
	pid    uint32
	name   string
	once   sync.Once
}

// PID returns the process id.
func (p *Process) PID() uint32 { return p.pid }

// Name returns the executable name used to attach.
func (p *Process) Name() string { return p.name }

// Close releases the process handle. Later calls are no-ops.
func (p *Process) Close() error {
	var err error
	p.once.Do(func() {
		err = windows.CloseHandle(p.handle)
		p.handle = 0
	})
	return err
}

func findProcess(name string) (uint32, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return 0, fmt.Errorf("process snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	for err = windows.Process32First(snapshot, &entry); err == nil; err = windows.Process32Next(snapshot, &entry) {
		if SameName(windows.UTF16ToString(entry.ExeFile[:]), name) {
			return entry.ProcessID, nil
		}
	}
	return 0, ErrProcessNotFound
}

func openProcess(pid uint32, name string) (*Process, error) {
	handle, err := windows.OpenProcess(windows.PROCESS_ALL_ACCESS, false, pid)
	if err != nil {
		return nil, fmt.Errorf("OpenProcess(%d): %w", pid, err)
	}
	return &Process{handle: handle, pid: pid, name: name}, nil
}

// ReadBytes implements Memory.
func (p *Process) ReadBytes(addr, size uint64) []byte {
	if size == 0 || size > MaxReadSize || p.handle == 0 {
		return nil
	}
	buf := make([]byte, size)
	var n uintptr
	err := windows.ReadProcessMemory(p.handle, uintptr(addr), &buf[0], uintptr(size), &n)
	if err != nil || uint64(n) != size {
		return nil
	}
	return buf
}

// WriteBytes implements Memory.
func (p *Process) WriteBytes(addr uint64, data []byte) bool {
	if len(data) == 0 || p.handle == 0 {
		return false
	}
	var n uintptr
	err := windows.WriteProcessMemory(p.handle, uintptr(addr), &data[0], uintptr(len(data)), &n)
	return err == nil && int(n) == len(data)
}

// Module implements Memory.
func (p *Process) Module(name string) (Module, bool) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, p.pid)
	if err != nil {
		return Module{}, false
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ModuleEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	for err = windows.Module32First(snapshot, &entry); err == nil; err = windows.Module32Next(snapshot, &entry) {
		modName := windows.UTF16ToString(entry.Module[:])
		if SameName(modName, name) {
			return Module{
				Name: modName,
				Path: windows.UTF16ToString(entry.ExePath[:]),
				Base: uint64(entry.ModBaseAddr),
				Size: uint64(entry.ModBaseSize),
			}, true
		}
	}
	return Module{}, false
}

// Query implements Memory.
func (p *Process) Query(addr uint64) (Region, bool) {
	var mbi windows.MemoryBasicInformation
	if err := windows.VirtualQueryEx(p.handle, uintptr(addr), &mbi, unsafe.Sizeof(mbi)); err != nil {
		return Region{}, false
	}
	return Region{
		Base:    uint64(mbi.BaseAddress),
		Size:    uint64(mbi.RegionSize),
		State:   stateFromWindows(mbi.State),
		Protect: protectFromWindows(mbi.Protect),
	}, true
}

func stateFromWindows(s uint32) State {
	switch s {
	case windows.MEM_COMMIT:
		return StateCommit
	case windows.MEM_RESERVE:
		return StateReserve
	default:
		return StateFree
	}
}

func protectFromWindows(p uint32) Protect {
	var out Protect
	if p&windows.PAGE_GUARD != 0 {
		out |= ProtGuard
	}
	switch p &^ (windows.PAGE_GUARD | windows.PAGE_NOCACHE | windows.PAGE_WRITECOMBINE) {
	case windows.PAGE_READONLY:
		out |= ProtRead
	case windows.PAGE_READWRITE:
		out |= ProtRead | ProtWrite
	case windows.PAGE_WRITECOPY:
		out |= ProtRead | ProtCopy
	case windows.PAGE_EXECUTE:
		out |= ProtExec
	case windows.PAGE_EXECUTE_READ:
		out |= ProtRead | ProtExec
	case windows.PAGE_EXECUTE_READWRITE:
		out |= ProtRead | ProtWrite | ProtExec
	case windows.PAGE_EXECUTE_WRITECOPY:
		out |= ProtRead | ProtExec | ProtCopy
	}
	return out
}

func enableDebugPrivilege() error {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token)
	if err != nil {
		return fmt.Errorf("OpenProcessToken: %w", err)
	}
	defer token.Close()

	var luid windows.LUID
	name, err := windows.UTF16PtrFromString("SeDebugPrivilege")
	if err != nil {
		return err
	}
	if err := windows.LookupPrivilegeValue(nil, name, &luid); err != nil {
		return fmt.Errorf("LookupPrivilegeValue: %w", err)
	}

	tp := windows.Tokenprivileges{PrivilegeCount: 1}
	tp.Privileges[0] = windows.LUIDAndAttributes{
		Luid:       luid,
		Attributes: windows.SE_PRIVILEGE_ENABLED,
	}
	if err := windows.AdjustTokenPrivileges(token, false, &tp, 0, nil, nil); err != nil {
		return fmt.Errorf("AdjustTokenPrivileges: %w", err)
	}
	return nil
}
