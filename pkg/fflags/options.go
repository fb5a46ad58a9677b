package fflags

import (
	"log/slog"
	"time"

	"github.com/joshuapare/flagkit/internal/remote"
	"github.com/joshuapare/flagkit/internal/resolve"
	"github.com/joshuapare/flagkit/internal/table"
)

// DefaultProcess is the client executable attached to by default.
const DefaultProcess = "RobloxPlayerBeta.exe"

// Options configures a Session.
type Options struct {
	// Process is the executable name to attach to. Default: DefaultProcess
	Process string

	// Module is the image holding the registry. Default: Process
	Module string

	// CachePath is where the singleton offset is persisted.
	// Default: resolve.DefaultCachePath
	CachePath string

	// Store overrides CachePath with a custom cache.
	Store resolve.CacheStore

	// Rule overrides the singleton signature and decoding.
	Rule *resolve.Rule

	// Validator overrides the cached-offset sanity check.
	Validator resolve.Validator

	// Fingerprint ties the cache to the module build.
	Fingerprint bool

	// AttachInterval is the delay between attach attempts.
	// Default: remote.DefaultAttachInterval
	AttachInterval time.Duration

	// PollInterval is the delay between table readiness checks.
	// Default: table.DefaultPollInterval
	PollInterval time.Duration

	// MaxChain bounds a single bucket walk. Default: table.DefaultMaxChain
	MaxChain int

	// Debug requests the debug privilege before attaching (Windows only).
	Debug bool

	Logger *slog.Logger
}

// DefaultOptions returns the options used by flagctl when no flags are given.
func DefaultOptions() Options {
	return Options{
		Process:        DefaultProcess,
		CachePath:      resolve.DefaultCachePath,
		AttachInterval: remote.DefaultAttachInterval,
		PollInterval:   table.DefaultPollInterval,
		MaxChain:       table.DefaultMaxChain,
	}
}

func (o Options) withDefaults() Options {
	if o.Process == "" {
		o.Process = DefaultProcess
	}
	if o.Module == "" {
		o.Module = o.Process
	}
	if o.Store == nil {
		o.Store = resolve.FileStore{Path: o.CachePath}
	}
	return o
}
