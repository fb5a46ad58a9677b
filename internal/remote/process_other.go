//go:build !windows && !linux

package remote

// Process is unavailable on this platform.
type Process struct{}

func (p *Process) PID() uint32 { return 0 }

func (p *Process) Name() string { return "" }

func (p *Process) Close() error { return nil }

func (p *Process) ReadBytes(addr, size uint64) []byte { return nil }

func (p *Process) WriteBytes(addr uint64, data []byte) bool { return false }

func (p *Process) Module(name string) (Module, bool) { return Module{}, false }

func (p *Process) Query(addr uint64) (Region, bool) { return Region{}, false }

func findProcess(name string) (uint32, error) { return 0, ErrUnsupported }

func openProcess(pid uint32, name string) (*Process, error) { return nil, ErrUnsupported }

func enableDebugPrivilege() error { return ErrUnsupported }
