package fflags

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
)

// DefaultMappingPath is the mapping file read by flagctl apply.
const DefaultMappingPath = "fflags.json"

// Mapping is a flag identifier to value document. Values are bool,
// json.Number, or string once loaded.
type Mapping map[string]any

// LoadMapping reads a JSON object from path.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMapping(data)
}

// ParseMapping decodes a JSON object, keeping numbers exact.
func ParseMapping(data []byte) (Mapping, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m Mapping
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("parse mapping: not an object")
	}
	return m, nil
}

// Keys returns the identifiers in sorted order.
func (m Mapping) Keys() []string {
	keys := lo.Keys(map[string]any(m))
	sort.Strings(keys)
	return keys
}

// Without returns a copy of m lacking keys.
func (m Mapping) Without(keys ...string) Mapping {
	drop := lo.SliceToMap(keys, func(k string) (string, struct{}) { return k, struct{}{} })
	return Mapping(lo.OmitBy(map[string]any(m), func(k string, _ any) bool {
		_, ok := drop[k]
		return ok
	}))
}

// Save writes m to path, replacing the file. Keys are sorted and indented
// by four spaces; string values are written without HTML escaping.
func (m Mapping) Save(path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(m); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
