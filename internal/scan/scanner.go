package scan

import (
	"log/slog"

	"github.com/joshuapare/flagkit/internal/logger"
	"github.com/joshuapare/flagkit/internal/remote"
)

// DefaultProbe is how far the scanner advances when a region query fails.
const DefaultProbe = 0x1000

// Scanner searches one module of a target.
type Scanner struct {
	mem    remote.Memory
	module remote.Module
	probe  uint64
	log    *slog.Logger
}

// Options configures a Scanner.
type Options struct {
	// Probe is the step taken when region metadata is unavailable.
	// Default: DefaultProbe
	Probe  uint64
	Logger *slog.Logger
}

// New returns a scanner over module.
func New(mem remote.Memory, module remote.Module, opts Options) *Scanner {
	probe := opts.Probe
	if probe == 0 {
		probe = DefaultProbe
	}
	return &Scanner{mem: mem, module: module, probe: probe, log: logger.Or(opts.Logger)}
}

// Module returns the module being scanned.
func (s *Scanner) Module() remote.Module { return s.module }

// FindFirst returns the absolute address of the first match, or 0.
func (s *Scanner) FindFirst(sig Signature) uint64 {
	var found uint64
	s.walk(sig, func(addr uint64, buf []byte) bool {
		if i := sig.Index(buf); i >= 0 {
			found = addr + uint64(i)
			return false
		}
		return true
	})
	return found
}

// FindAll returns the absolute address of every match in module order.
func (s *Scanner) FindAll(sig Signature) []uint64 {
	var out []uint64
	s.walk(sig, func(addr uint64, buf []byte) bool {
		for _, i := range sig.IndexAll(buf) {
			out = append(out, addr+uint64(i))
		}
		return true
	})
	return out
}

// walk calls fn with the contents of every readable region of the module,
// clamped to the module bounds. fn returns false to stop.
func (s *Scanner) walk(sig Signature, fn func(addr uint64, buf []byte) bool) {
	if sig.Empty() || s.module.Size == 0 {
		return
	}
	start, end := s.module.Base, s.module.End()
	var regions, skipped int

	for start < end {
		region, ok := s.mem.Query(start)
		if !ok || region.End() <= start {
			start += s.probe
			continue
		}
		next := region.End()
		if region.Readable() {
			stop := min(next, end)
			buf := s.mem.ReadBytes(start, stop-start)
			if buf == nil {
				skipped++
				s.log.Debug("region read failed", "base", start, "size", stop-start)
			} else {
				regions++
				if !fn(start, buf) {
					return
				}
			}
		}
		start = next
	}
	s.log.Debug("scan complete", "module", s.module.Name, "regions", regions, "skipped", skipped, "signature", sig.String())
}
