package table

import (
	"context"

	"github.com/joshuapare/flagkit/internal/layout"
)

// Entry is one name and record pair from the table.
type Entry struct {
	Name   string
	Record uint64
	Bucket uint64
}

// Entries calls fn for every entry in the table, bucket by bucket. fn
// returns false to stop early.
func (w *Walker) Entries(ctx context.Context, fn func(Entry) bool) error {
	if w.singleton == 0 {
		return nil
	}
	tbl, err := w.Ready(ctx)
	if err != nil {
		return err
	}

	for idx := uint64(0); idx <= tbl.Mask; idx++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		bucket, ok := w.bucket(tbl, idx)
		if !ok || bucket.Last == tbl.End {
			continue
		}
		stop := false
		w.ring(tbl, bucket, func(e layout.Entry) bool {
			name, ok := w.name(e.Name)
			if !ok {
				return true
			}
			if !fn(Entry{Name: name, Record: e.Record, Bucket: idx}) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return nil
		}
	}
	return nil
}
