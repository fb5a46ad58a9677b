package fflags

import (
	"strings"

	"github.com/joshuapare/flagkit/internal/layout"
)

// Prefix maps an identifier prefix to the kind of value it names.
type Prefix struct {
	Text string
	Kind layout.ValueKind
}

// Prefixes in match order. Longer prefixes come first so DFFlag is never
// read as a D followed by FFlag.
var Prefixes = []Prefix{
	{"DFString", layout.KindString},
	{"DFFlag", layout.KindFlag},
	{"DFInt", layout.KindInteger},
	{"DFLog", layout.KindLog},
	{"FString", layout.KindString},
	{"FFlag", layout.KindFlag},
	{"FInt", layout.KindInteger},
	{"FLog", layout.KindLog},
}

// Classify strips the first matching prefix from key and returns the
// registry name with its kind. Keys without a known prefix are returned as
// is, as integers.
func Classify(key string) (name string, kind layout.ValueKind) {
	for _, p := range Prefixes {
		if strings.HasPrefix(key, p.Text) {
			return key[len(p.Text):], p.Kind
		}
	}
	return key, layout.KindInteger
}
