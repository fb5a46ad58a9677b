package remote

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joshuapare/flagkit/internal/logger"
)

// DefaultAttachInterval is the delay between attach attempts.
const DefaultAttachInterval = 500 * time.Millisecond

// AttachOptions configures Attach.
type AttachOptions struct {
	// Interval between attempts while the process is absent.
	// Default: DefaultAttachInterval
	Interval time.Duration

	// Debug requests the debug privilege before opening the process.
	// Ignored where the platform has no such privilege.
	Debug bool

	Logger *slog.Logger
}

// Attach waits until a process called name exists, opens it, and returns
// the handle. It retries until ctx is done.
func Attach(ctx context.Context, name string, opts AttachOptions) (*Process, error) {
	log := logger.Or(opts.Logger)
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultAttachInterval
	}

	if opts.Debug {
		if err := enableDebugPrivilege(); err != nil {
			log.Warn("debug privilege unavailable", "err", err)
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		pid, err := findProcess(name)
		switch {
		case errors.Is(err, ErrUnsupported):
			return nil, err
		case err == nil:
			p, openErr := openProcess(pid, name)
			if openErr == nil {
				log.Info("attached", "process", name, "pid", pid, "attempts", attempt)
				return p, nil
			}
			log.Debug("open failed", "process", name, "pid", pid, "err", openErr)
		default:
			log.Debug("waiting for process", "process", name, "attempt", attempt, "err", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ Memory = (*Process)(nil)
