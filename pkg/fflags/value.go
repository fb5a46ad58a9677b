package fflags

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joshuapare/flagkit/internal/flag"
	"github.com/joshuapare/flagkit/internal/layout"
)

// Value is a mapping value converted to what the target stores.
type Value struct {
	// IsString selects Str over Int.
	IsString bool
	Int      int32
	Str      string
}

func (v Value) String() string {
	if v.IsString {
		return strconv.Quote(v.Str)
	}
	return strconv.FormatInt(int64(v.Int), 10)
}

// store writes v through rec.
func (v Value) store(rec *flag.Record) bool {
	if v.IsString {
		return rec.SetString(v.Str)
	}
	return rec.SetInt(v.Int)
}

// Log level names accepted for log flags.
var levels = map[string]int32{
	"fatal":   0,
	"error":   1,
	"warning": 4,
	"info":    6,
	"verbose": 7,
}

// Coerce converts a decoded JSON value to what a flag of kind stores.
//
// Booleans become 0 or 1 and integers are stored as they are, whatever the
// kind. Strings are interpreted by kind: flags accept true/false or a
// number, integers a number, log flags a level name or number, and strings
// are stored verbatim.
func Coerce(kind layout.ValueKind, raw any) (Value, error) {
	switch v := raw.(type) {
	case bool:
		if v {
			return Value{Int: 1}, nil
		}
		return Value{Int: 0}, nil
	case json.Number:
		n, err := int32FromNumber(string(v))
		if err != nil {
			return Value{}, err
		}
		return Value{Int: n}, nil
	case float64:
		if v != math.Trunc(v) {
			return Value{}, fmt.Errorf("%w: %v is not an integer", ErrInvalidValue, v)
		}
		n, err := int32FromNumber(strconv.FormatFloat(v, 'f', -1, 64))
		if err != nil {
			return Value{}, err
		}
		return Value{Int: n}, nil
	case int:
		return int32FromInt64(int64(v))
	case int32:
		return Value{Int: v}, nil
	case int64:
		return int32FromInt64(v)
	case string:
		return coerceString(kind, v)
	default:
		return Value{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, raw)
	}
}

func coerceString(kind layout.ValueKind, s string) (Value, error) {
	switch kind {
	case layout.KindString:
		return Value{IsString: true, Str: s}, nil
	case layout.KindFlag:
		b, err := ParseBool(s)
		if err != nil {
			return Value{}, err
		}
		if b {
			return Value{Int: 1}, nil
		}
		return Value{Int: 0}, nil
	case layout.KindInteger:
		n, err := ParseInt(s)
		if err != nil {
			return Value{}, err
		}
		return Value{Int: n}, nil
	case layout.KindLog:
		n, err := ParseLevel(s)
		if err != nil {
			return Value{}, err
		}
		return Value{Int: n}, nil
	default:
		return Value{}, fmt.Errorf("%w: %s", layout.ErrUnknownKind, kind)
	}
}

// ParseBool reads a flag value: anything starting with t or f (either case)
// is true or false; otherwise the leading integer decides.
func ParseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	switch s[0] {
	case 't', 'T':
		return true, nil
	case 'f', 'F':
		return false, nil
	}
	n, err := ParseInt(s)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// ParseInt reads the leading decimal integer of s, after optional
// whitespace and sign. Trailing text is ignored.
func ParseInt(s string) (int32, error) {
	t := strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(t) && (t[end] == '+' || t[end] == '-') {
		end++
	}
	digits := end
	for end < len(t) && t[end] >= '0' && t[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s)
	}
	n, err := strconv.ParseInt(t[:end], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidValue, s)
	}
	return int32(n), nil
}

// ParseLevel reads a log level. Only the text before the first ',' or ';'
// counts; whitespace and case are ignored.
func ParseLevel(s string) (int32, error) {
	if i := strings.IndexAny(s, ",;"); i >= 0 {
		s = s[:i]
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = cases.Lower(language.Und).String(s)
	if n, ok := levels[s]; ok {
		return n, nil
	}
	return ParseInt(s)
}

// int32FromNumber accepts anything that fits in 32 bits, signed or not.
// Unsigned values above MaxInt32 keep their bit pattern.
func int32FromNumber(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a 32-bit integer", ErrInvalidValue, s)
	}
	v, err := int32FromInt64(n)
	return v.Int, err
}

func int32FromInt64(n int64) (Value, error) {
	switch {
	case n >= math.MinInt32 && n <= math.MaxInt32:
		return Value{Int: int32(n)}, nil
	case n > math.MaxInt32 && n <= math.MaxUint32:
		return Value{Int: int32(uint32(n))}, nil
	}
	return Value{}, fmt.Errorf("%w: %d does not fit in 32 bits", ErrInvalidValue, n)
}
