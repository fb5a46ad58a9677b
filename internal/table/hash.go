// Package table looks flags up in the target's in-memory hash table.
//
// The table is a chained hash map. Each bucket records the first and last
// node of its chain; chains are rings of doubly linked entries. A lookup
// hashes the name, selects a bucket with the table mask, and walks the ring
// from the bucket's last node along the forward links until it has processed
// the bucket's first node.
package table

import "hash/fnv"

// Hash returns the 64-bit FNV-1a digest of name's bytes. It must agree with
// the target's own string hash or every lookup lands in the wrong bucket.
func Hash(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return h.Sum64()
}
