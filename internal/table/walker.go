package table

import (
	"context"
	"log/slog"
	"time"

	"github.com/joshuapare/flagkit/internal/layout"
	"github.com/joshuapare/flagkit/internal/logger"
	"github.com/joshuapare/flagkit/internal/remote"
)

const (
	// DefaultPollInterval is the delay between table readiness checks.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultMaxChain bounds how many nodes one bucket walk may visit.
	DefaultMaxChain = 4096

	// maxNameLength caps heap names read while enumerating.
	maxNameLength = 4096
)

// Options configures a Walker.
type Options struct {
	// PollInterval is the delay between readiness checks while the target
	// has not populated the table header. Default: DefaultPollInterval
	PollInterval time.Duration

	// MaxChain caps the nodes visited per bucket. A ring that is being
	// rewritten underneath the walk can otherwise loop forever.
	// Default: DefaultMaxChain
	MaxChain int

	Logger *slog.Logger
}

// Walker resolves names to record addresses in one table.
type Walker struct {
	mem       remote.Memory
	singleton uint64
	interval  time.Duration
	maxChain  int
	log       *slog.Logger
}

// NewWalker returns a walker for the table owned by singleton.
func NewWalker(mem remote.Memory, singleton uint64, opts Options) *Walker {
	w := &Walker{
		mem:       mem,
		singleton: singleton,
		interval:  opts.PollInterval,
		maxChain:  opts.MaxChain,
		log:       logger.Or(opts.Logger),
	}
	if w.interval <= 0 {
		w.interval = DefaultPollInterval
	}
	if w.maxChain <= 0 {
		w.maxChain = DefaultMaxChain
	}
	return w
}

// Singleton returns the address the walker reads the table from.
func (w *Walker) Singleton() uint64 { return w.singleton }

// Header reads the table header once.
func (w *Walker) Header() (layout.Table, bool) {
	b := w.mem.ReadBytes(w.singleton+layout.TableOffset, layout.TableHeaderSize)
	tbl, err := layout.DecodeTable(b)
	if err != nil {
		return layout.Table{}, false
	}
	return tbl, true
}

// Ready blocks until the table header is populated or ctx is done.
func (w *Walker) Ready(ctx context.Context) (layout.Table, error) {
	if tbl, ok := w.Header(); ok && tbl.Ready() {
		return tbl, nil
	}

	w.log.Debug("waiting for table", "singleton", w.singleton)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for polls := 1; ; polls++ {
		select {
		case <-ctx.Done():
			return layout.Table{}, ctx.Err()
		case <-ticker.C:
		}
		if tbl, ok := w.Header(); ok && tbl.Ready() {
			w.log.Debug("table ready", "polls", polls, "mask", tbl.Mask)
			return tbl, nil
		}
	}
}

// Find returns the record address stored under name, or 0 when the table
// has no such entry. The only error is ctx ending while the table is not
// yet ready.
func (w *Walker) Find(ctx context.Context, name string) (uint64, error) {
	if w.singleton == 0 {
		return 0, nil
	}
	tbl, err := w.Ready(ctx)
	if err != nil {
		return 0, err
	}
	return w.find(tbl, name), nil
}

func (w *Walker) find(tbl layout.Table, name string) uint64 {
	bucket, ok := w.bucket(tbl, Hash(name))
	if !ok || bucket.Last == tbl.End {
		return 0
	}

	var found uint64
	w.ring(tbl, bucket, func(e layout.Entry) bool {
		if e.Name.Length != uint64(len(name)) {
			return true
		}
		if stored, ok := w.name(e.Name); ok && stored == name {
			found = e.Record
			return false
		}
		return true
	})
	return found
}

func (w *Walker) bucket(tbl layout.Table, hash uint64) (layout.Bucket, bool) {
	b, err := layout.DecodeBucket(w.mem.ReadBytes(tbl.BucketAddress(hash), layout.BucketSize))
	if err != nil {
		return layout.Bucket{}, false
	}
	return b, true
}

// ring visits every node of a bucket, last to first. fn returns false to stop.
func (w *Walker) ring(tbl layout.Table, bucket layout.Bucket, fn func(layout.Entry) bool) {
	current := bucket.Last
	for visited := 0; ; visited++ {
		if visited >= w.maxChain {
			w.log.Warn("bucket chain too long", "first", bucket.First, "limit", w.maxChain)
			return
		}
		entry, err := layout.DecodeEntry(w.mem.ReadBytes(current, layout.EntrySize))
		if err != nil {
			w.log.Debug("entry read failed", "node", current)
			return
		}
		if !fn(entry) {
			return
		}
		if current == bucket.First {
			return
		}
		current = entry.Forward
		if current == 0 || current == tbl.End {
			w.log.Warn("bucket ring broken", "first", bucket.First)
			return
		}
	}
}

// name materializes an entry name, following the heap pointer for long names.
func (w *Walker) name(s layout.String) (string, bool) {
	if s.IsInline() {
		if s.Length > uint64(len(s.Inline)) {
			return "", false
		}
		return string(s.InlineBytes()), true
	}
	if s.Length > maxNameLength {
		w.log.Debug("entry name too long", "length", s.Length)
		return "", false
	}
	return remote.ReadString(w.mem, s.Pointer(), s.Length)
}
