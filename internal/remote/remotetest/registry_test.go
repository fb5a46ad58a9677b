package remotetest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshuapare/flagkit/internal/layout"
)

func TestBuildRegistryRejectsZeroMask(t *testing.T) {
	assert.Panics(t, func() { BuildRegistry(New(), 0, []Flag{{Name: "A"}}) })
}

func TestBuildRegistryHeader(t *testing.T) {
	m := New()
	reg := BuildRegistry(m, 0x3, []Flag{{Name: "A", Kind: layout.KindInteger, Int: 5}})

	header := reg.Singleton + layout.TableOffset
	assert.Equal(t, uint64(0x3), m.PeekU64(header+layout.TableMaskOffset))
	assert.Equal(t, reg.Buckets, m.PeekU64(header+layout.TableBucketsOffset))
	assert.Equal(t, uint64(5), m.PeekU64(reg.Values["A"]))
}
