// Package resolve finds the flag registry singleton in a target module.
//
// Resolution has two paths. The cache path rebases a previously persisted
// module-relative offset and asks a Validator whether the memory there still
// looks like a live registry. The scan path searches the module for the
// signature of code that loads the singleton, decodes the instruction's
// RIP-relative operand, and persists the resulting offset for next time.
// A stale cache is never an error; it only costs a scan.
package resolve

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/flagkit/internal/logger"
	"github.com/joshuapare/flagkit/internal/remote"
	"github.com/joshuapare/flagkit/internal/scan"
)

// Source records which path produced a Singleton.
type Source int

const (
	SourceCache Source = iota + 1
	SourceScan
)

func (s Source) String() string {
	switch s {
	case SourceCache:
		return "cache"
	case SourceScan:
		return "pattern"
	default:
		return "unknown"
	}
}

// Singleton is a resolved registry address.
type Singleton struct {
	// Address is the absolute address of the singleton object.
	Address uint64
	// Offset is the module-relative offset of the global pointing to it.
	Offset uint64
	Source Source
}

// Options configures a Resolver.
type Options struct {
	// Module is the image to search. Required.
	Module string

	// Rule locates the singleton global. Default: DefaultRule()
	Rule *Rule

	// Validator checks cached offsets. Default: TableValidator{}
	Validator Validator

	// Store persists offsets. Default: FileStore{Path: DefaultCachePath}
	Store CacheStore

	// Fingerprint ties cached offsets to the module build they came from.
	Fingerprint bool

	// ScanProbe is passed through to the scanner.
	ScanProbe uint64

	Logger *slog.Logger
}

// Resolver locates the singleton in one target.
type Resolver struct {
	mem       remote.Memory
	module    string
	rule      Rule
	validator Validator
	store     CacheStore
	stamp     bool
	probe     uint64
	log       *slog.Logger
}

// New returns a resolver over mem.
func New(mem remote.Memory, opts Options) *Resolver {
	r := &Resolver{
		mem:       mem,
		module:    opts.Module,
		validator: opts.Validator,
		store:     opts.Store,
		stamp:     opts.Fingerprint,
		probe:     opts.ScanProbe,
		log:       logger.Or(opts.Logger),
	}
	if opts.Rule != nil {
		r.rule = *opts.Rule
	} else {
		r.rule = DefaultRule()
	}
	if r.rule.Decoder == nil {
		r.rule.Decoder = FixedDisplacement{Offset: 3}
	}
	if r.validator == nil {
		r.validator = TableValidator{}
	}
	if r.store == nil {
		r.store = FileStore{Path: DefaultCachePath}
	}
	return r
}

// Resolve returns the singleton, preferring a valid cached offset.
func (r *Resolver) Resolve() (Singleton, error) {
	return r.resolve(true)
}

// Rescan ignores the cache, scans, and stores the new offset.
func (r *Resolver) Rescan() (Singleton, error) {
	return r.resolve(false)
}

func (r *Resolver) resolve(useCache bool) (Singleton, error) {
	mod, ok := r.mem.Module(r.module)
	if !ok {
		return Singleton{}, fmt.Errorf("%w: %s", remote.ErrModuleNotFound, r.module)
	}

	var stamp string
	if r.stamp {
		stamp = Fingerprint(r.mem, mod)
	}

	if !useCache {
		r.log.Debug("cache bypassed")
	} else if s, ok := r.fromCache(mod, stamp); ok {
		r.log.Info("found singleton", "source", s.Source, "address", s.Address, "offset", s.Offset)
		return s, nil
	}

	s, err := r.Scan(mod)
	if err != nil {
		return Singleton{}, err
	}
	if err := r.store.Save(Cache{Singleton: s.Offset, Fingerprint: stamp}); err != nil {
		r.log.Warn("cache save failed", "err", err)
	}
	r.log.Info("found singleton", "source", s.Source, "address", s.Address, "offset", s.Offset)
	return s, nil
}

func (r *Resolver) fromCache(mod remote.Module, stamp string) (Singleton, bool) {
	c, ok, err := r.store.Load()
	if err != nil {
		r.log.Warn("cache load failed", "err", err)
		return Singleton{}, false
	}
	if !ok || c.Singleton == 0 {
		return Singleton{}, false
	}
	if stamp != "" && c.Fingerprint != "" && c.Fingerprint != stamp {
		r.log.Debug("cache from another build", "cached", c.Fingerprint, "live", stamp)
		return Singleton{}, false
	}

	slot := mod.Rebase(c.Singleton)
	addr, ok := r.validator.Validate(r.mem, slot)
	if !ok {
		r.log.Debug("stale cache", "offset", c.Singleton, "slot", slot)
		return Singleton{}, false
	}
	return Singleton{Address: addr, Offset: c.Singleton, Source: SourceCache}, true
}

// Scan runs the scan path without touching the cache.
func (r *Resolver) Scan(mod remote.Module) (Singleton, error) {
	s := scan.New(r.mem, mod, scan.Options{Probe: r.probe, Logger: r.log})
	match := s.FindFirst(r.rule.Signature)
	if match == 0 {
		return Singleton{}, fmt.Errorf("%w in %s", ErrPatternNotFound, mod.Name)
	}

	at := match + r.rule.InstructionOffset
	window := r.mem.ReadBytes(at, r.rule.WindowLength)
	if window == nil {
		return Singleton{}, fmt.Errorf("%w at %#x", ErrInstructionRead, at)
	}
	slot, ok := r.rule.Decoder.Target(window, at)
	if !ok {
		return Singleton{}, fmt.Errorf("%w at %#x", ErrDecode, at)
	}

	addr := remote.ReadU64(r.mem, slot)
	if addr == 0 {
		r.log.Warn("singleton global is empty", "slot", slot)
	}
	r.log.Debug("pattern matched", "match", match, "slot", slot)
	return Singleton{Address: addr, Offset: mod.Offset(slot), Source: SourceScan}, nil
}
