package fflags

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/joshuapare/flagkit/internal/layout"
)

// Status is the outcome of applying one mapping entry.
type Status int

const (
	// StatusSet means the value was written.
	StatusSet Status = iota + 1
	// StatusWriteFailed means the flag was found but the write did not land.
	StatusWriteFailed
	// StatusNotFound means the registry has no such flag.
	StatusNotFound
	// StatusUnregistered means the flag has no storage and was skipped.
	StatusUnregistered
	// StatusInvalid means the value could not be converted for the flag.
	StatusInvalid
	// StatusSkipped means the identifier was empty after its prefix.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSet:
		return "set"
	case StatusWriteFailed:
		return "write failed"
	case StatusNotFound:
		return "not found"
	case StatusUnregistered:
		return "unregistered"
	case StatusInvalid:
		return "invalid"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Flag describes one flag as read from the target.
type Flag struct {
	Key          string           `json:"key"`
	Name         string           `json:"name"`
	Kind         layout.ValueKind `json:"-"`
	Type         layout.FlagType  `json:"-"`
	Record       uint64           `json:"record"`
	ValuePtr     uint64           `json:"value_ptr"`
	Value        string           `json:"value,omitempty"`
	Unregistered bool             `json:"unregistered,omitempty"`
}

// Result is the outcome for one mapping entry.
type Result struct {
	Key      string
	Name     string
	Kind     layout.ValueKind
	Status   Status
	Value    Value
	Record   uint64
	ValuePtr uint64
	Err      error
}

// Report collects the results of Apply in key order.
type Report struct {
	Results []Result
}

// Count returns how many results have status.
func (r Report) Count(status Status) int {
	return lo.CountBy(r.Results, func(res Result) bool { return res.Status == status })
}

// Missing returns the keys whose flags were not found.
func (r Report) Missing() []string {
	return lo.FilterMap(r.Results, func(res Result, _ int) (string, bool) {
		return res.Key, res.Status == StatusNotFound
	})
}

// OK reports whether every entry was either set or deliberately skipped.
func (r Report) OK() bool {
	return lo.EveryBy(r.Results, func(res Result) bool {
		return res.Status == StatusSet || res.Status == StatusUnregistered || res.Status == StatusSkipped
	})
}

// Apply writes every entry of m. Entries are processed in key order; a
// failed entry never stops the batch. The error is non-nil only when the
// registry could not be resolved or ctx ended.
func (s *Session) Apply(ctx context.Context, m Mapping) (Report, error) {
	var report Report
	for _, key := range m.Keys() {
		res, err := s.Set(ctx, key, m[key])
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// Set writes one value under a prefixed key. raw is a bool, integer,
// json.Number, or string. Per-flag failures are reported in the Result;
// the error is reserved for resolution failures and cancellation.
func (s *Session) Set(ctx context.Context, key string, raw any) (Result, error) {
	name, kind := Classify(key)
	res := Result{Key: key, Name: name, Kind: kind}
	if name == "" {
		res.Status = StatusSkipped
		res.Err = fmt.Errorf("%w: %q", ErrEmptyName, key)
		return res, nil
	}

	ref, err := s.Lookup(ctx, name)
	if err != nil {
		return res, err
	}
	if !ref.Valid() {
		res.Status = StatusNotFound
		res.Err = fmt.Errorf("%w: %s", ErrFlagNotFound, name)
		s.log.Debug("flag not found", "key", key)
		return res, nil
	}
	res.Record = ref.Address

	rec, ok := ref.Resolve(s.mem)
	if !ok {
		res.Status = StatusWriteFailed
		res.Err = fmt.Errorf("record read failed at %#x", ref.Address)
		return res, nil
	}
	res.ValuePtr = rec.Snapshot().Value

	if rec.Unregistered() {
		res.Status = StatusUnregistered
		res.Err = fmt.Errorf("%w: %s", ErrUnregistered, name)
		s.log.Info("flag has unregistered accessor, skipping", "name", name)
		return res, nil
	}

	val, err := Coerce(kind, raw)
	if err != nil {
		res.Status = StatusInvalid
		res.Err = err
		return res, nil
	}
	res.Value = val

	if val.IsString && rec.Kind() != layout.KindString {
		res.Status = StatusInvalid
		res.Err = fmt.Errorf("%w: %s holds %s", ErrKindMismatch, name, rec.Kind())
		return res, nil
	}

	if !val.store(rec) {
		res.Status = StatusWriteFailed
		res.Err = errors.New("remote write failed")
		s.log.Warn("flag write failed", "name", name, "value", val.String())
		return res, nil
	}
	res.Status = StatusSet
	s.log.Debug("flag set", "name", name, "value", val.String(), "value_ptr", res.ValuePtr)
	return res, nil
}
