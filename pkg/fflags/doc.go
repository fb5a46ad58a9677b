// Package fflags reads and overwrites feature flags inside a running client.
//
// A Session owns one attached target. It resolves the flag registry
// singleton (from the address cache when it is still valid, otherwise by
// scanning the client module), then looks flags up by name through the
// registry's own hash table.
//
// Flag identifiers carry their storage kind as a prefix:
//
//	DFString / FString   string
//	DFFlag   / FFlag     flag (boolean)
//	DFInt    / FInt      integer
//	DFLog    / FLog      log level
//
// The prefix is stripped before lookup. Identifiers with no known prefix are
// looked up verbatim and treated as integers.
//
// Basic usage:
//
//	s, err := fflags.Open(ctx, fflags.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	m, err := fflags.LoadMapping("fflags.json")
//	if err != nil {
//	    return err
//	}
//	report, err := s.Apply(ctx, m)
package fflags
