package fflags

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/joshuapare/flagkit/internal/flag"
	"github.com/joshuapare/flagkit/internal/logger"
	"github.com/joshuapare/flagkit/internal/remote"
	"github.com/joshuapare/flagkit/internal/resolve"
	"github.com/joshuapare/flagkit/internal/scan"
	"github.com/joshuapare/flagkit/internal/table"
)

// Session is an attached target with a lazily resolved registry.
type Session struct {
	mem    remote.Memory
	closer io.Closer
	opts   Options
	log    *slog.Logger

	resolver  *resolve.Resolver
	singleton resolve.Singleton
	walker    *table.Walker
}

// Open waits for the target process and attaches to it.
func Open(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	proc, err := remote.Attach(ctx, opts.Process, remote.AttachOptions{
		Interval: opts.AttachInterval,
		Debug:    opts.Debug,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", opts.Process, err)
	}
	s := NewSession(proc, opts)
	s.closer = proc
	return s, nil
}

// NewSession wraps an existing accessor. The session does not close mem.
func NewSession(mem remote.Memory, opts Options) *Session {
	opts = opts.withDefaults()
	log := logger.Or(opts.Logger)
	return &Session{
		mem:  mem,
		opts: opts,
		log:  log,
		resolver: resolve.New(mem, resolve.Options{
			Module:      opts.Module,
			Rule:        opts.Rule,
			Validator:   opts.Validator,
			Store:       opts.Store,
			Fingerprint: opts.Fingerprint,
			Logger:      log,
		}),
	}
}

// Close releases the target handle if the session opened it.
func (s *Session) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// Memory returns the accessor the session reads through.
func (s *Session) Memory() remote.Memory { return s.mem }

// Module returns the client module as currently loaded.
func (s *Session) Module() (remote.Module, error) {
	mod, ok := s.mem.Module(s.opts.Module)
	if !ok {
		return remote.Module{}, fmt.Errorf("%w: %s", remote.ErrModuleNotFound, s.opts.Module)
	}
	return mod, nil
}

// Resolve locates the registry singleton. Later calls return the first
// result; use Refresh to force a new resolution.
func (s *Session) Resolve(ctx context.Context) (resolve.Singleton, error) {
	if s.walker != nil {
		return s.singleton, nil
	}
	return s.Refresh(ctx)
}

// Refresh resolves the singleton again, for example after the target
// restarted.
func (s *Session) Refresh(ctx context.Context) (resolve.Singleton, error) {
	return s.resolve(ctx, s.resolver.Resolve)
}

// Rescan resolves the singleton by signature, replacing the cached offset.
func (s *Session) Rescan(ctx context.Context) (resolve.Singleton, error) {
	return s.resolve(ctx, s.resolver.Rescan)
}

func (s *Session) resolve(ctx context.Context, fn func() (resolve.Singleton, error)) (resolve.Singleton, error) {
	if err := ctx.Err(); err != nil {
		return resolve.Singleton{}, err
	}
	sing, err := fn()
	if err != nil {
		return resolve.Singleton{}, err
	}
	s.singleton = sing
	s.walker = table.NewWalker(s.mem, sing.Address, table.Options{
		PollInterval: s.opts.PollInterval,
		MaxChain:     s.opts.MaxChain,
		Logger:       s.log,
	})
	return sing, nil
}

// Lookup finds the record registered under name, which must already be
// stripped of its prefix. A missing flag is an invalid Ref, not an error.
func (s *Session) Lookup(ctx context.Context, name string) (flag.Ref, error) {
	if _, err := s.Resolve(ctx); err != nil {
		return flag.Ref{}, err
	}
	addr, err := s.walker.Find(ctx, name)
	if err != nil {
		return flag.Ref{}, err
	}
	return flag.Ref{Address: addr}, nil
}

// Record looks up and resolves the record for a prefixed key.
func (s *Session) Record(ctx context.Context, key string) (*flag.Record, error) {
	name, _ := Classify(key)
	if name == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptyName, key)
	}
	ref, err := s.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	rec, ok := ref.Resolve(s.mem)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFlagNotFound, key)
	}
	return rec, nil
}

// Get reads the current value of a prefixed key.
func (s *Session) Get(ctx context.Context, key string) (Flag, error) {
	rec, err := s.Record(ctx, key)
	if err != nil {
		return Flag{}, err
	}
	name, _ := Classify(key)
	f := Flag{
		Key:          key,
		Name:         name,
		Kind:         rec.Kind(),
		Type:         rec.Snapshot().Type,
		Record:       rec.Address(),
		ValuePtr:     rec.Snapshot().Value,
		Unregistered: rec.Unregistered(),
	}
	if f.Unregistered {
		return f, nil
	}
	if f.Value, err = rec.ReadValue(); err != nil {
		return f, err
	}
	return f, nil
}

// List enumerates every registered flag. fn returns false to stop.
func (s *Session) List(ctx context.Context, fn func(table.Entry) bool) error {
	if _, err := s.Resolve(ctx); err != nil {
		return err
	}
	return s.walker.Entries(ctx, fn)
}

// Scan searches the client module for sig and returns every match.
func (s *Session) Scan(sig scan.Signature) ([]uint64, error) {
	mod, err := s.Module()
	if err != nil {
		return nil, err
	}
	return scan.New(s.mem, mod, scan.Options{Logger: s.log}).FindAll(sig), nil
}
