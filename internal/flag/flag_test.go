package flag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/flagkit/internal/layout"
	"github.com/joshuapare/flagkit/internal/remote/remotetest"
)

func build(t *testing.T, flags ...remotetest.Flag) (*remotetest.Memory, *remotetest.Registry) {
	t.Helper()
	mem := remotetest.New()
	return mem, remotetest.BuildRegistry(mem, 0x3, flags)
}

func TestRefZeroIsInvalid(t *testing.T) {
	var r Ref
	assert.False(t, r.Valid())
	rec, ok := r.Resolve(remotetest.New())
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestResolveSnapshot(t *testing.T) {
	mem, reg := build(t, remotetest.Flag{Name: "FIntLimit", Kind: layout.KindInteger, Type: layout.TypeSync, Int: 10})

	rec, ok := Ref{Address: reg.Records["FIntLimit"]}.Resolve(mem)
	require.True(t, ok)
	assert.Equal(t, reg.Records["FIntLimit"], rec.Address())
	assert.Equal(t, layout.KindInteger, rec.Kind())
	assert.Equal(t, layout.TypeSync, rec.Snapshot().Type)
	assert.Equal(t, reg.Values["FIntLimit"], rec.Snapshot().Value)
	assert.False(t, rec.Unregistered())
}

func TestResolveReadFailure(t *testing.T) {
	_, ok := Ref{Address: 0x10}.Resolve(remotetest.New())
	assert.False(t, ok)
}

func TestSnapshotOnlyChangesOnRefresh(t *testing.T) {
	mem, reg := build(t, remotetest.Flag{Name: "FLogNet", Kind: layout.KindLog})
	addr := reg.Records["FLogNet"]
	rec, ok := Ref{Address: addr}.Resolve(mem)
	require.True(t, ok)

	mem.PokeU32(addr+layout.FlagKindOffset, uint32(layout.KindInteger))
	assert.Equal(t, layout.KindLog, rec.Kind())

	require.True(t, rec.Refresh())
	assert.Equal(t, layout.KindInteger, rec.Kind())
}

func TestSetScalars(t *testing.T) {
	mem, reg := build(t,
		remotetest.Flag{Name: "FFlagOn", Kind: layout.KindFlag},
		remotetest.Flag{Name: "FIntCount", Kind: layout.KindInteger, Int: 3},
	)

	on, ok := Ref{Address: reg.Records["FFlagOn"]}.Resolve(mem)
	require.True(t, ok)
	require.True(t, on.SetBool(true))
	assert.Equal(t, []byte{1, 0, 0, 0}, mem.Peek(reg.Values["FFlagOn"], 4))
	v, err := on.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	count, ok := Ref{Address: reg.Records["FIntCount"]}.Resolve(mem)
	require.True(t, ok)
	require.True(t, count.SetInt(-2))
	n, ok := count.Int()
	require.True(t, ok)
	assert.Equal(t, int32(-2), n)

	require.True(t, Set(count, uint16(0xBEEF)))
	assert.Equal(t, []byte{0xEF, 0xBE, 0xFF, 0xFF}, mem.Peek(reg.Values["FIntCount"], 4))
}

func TestSetStringWithinCapacity(t *testing.T) {
	mem, reg := build(t, remotetest.Flag{Name: "FStringHost", Kind: layout.KindString, Str: "old", Capacity: 15})
	rec, ok := Ref{Address: reg.Records["FStringHost"]}.Resolve(mem)
	require.True(t, ok)

	require.True(t, rec.SetString("example.org"))
	s, ok := rec.Text()
	require.True(t, ok)
	assert.Equal(t, "example.org", s)

	value := reg.Values["FStringHost"]
	data := mem.PeekU64(value + layout.ValueStringDataOffset)
	assert.Equal(t, append([]byte("example.org"), 0), mem.Peek(data, 12))
	assert.Equal(t, uint64(11), mem.PeekU64(value+layout.ValueStringLengthOffset))
	assert.Equal(t, uint64(15), mem.PeekU64(value+layout.ValueStringCapacityOffset))

	// Exactly at capacity is allowed.
	require.True(t, rec.SetString("123456789012345"))
	s, _ = rec.Text()
	assert.Equal(t, "123456789012345", s)
}

func TestSetStringOverCapacityWritesNothing(t *testing.T) {
	mem, reg := build(t, remotetest.Flag{Name: "FStringHost", Kind: layout.KindString, Str: "old", Capacity: 15})
	rec, ok := Ref{Address: reg.Records["FStringHost"]}.Resolve(mem)
	require.True(t, ok)

	value := reg.Values["FStringHost"]
	data := mem.PeekU64(value + layout.ValueStringDataOffset)
	before := mem.Peek(data, 16)

	assert.False(t, rec.SetString("this string is longer than fifteen"))
	assert.Empty(t, mem.Writes)
	assert.Equal(t, before, mem.Peek(data, 16))
	assert.Equal(t, uint64(3), mem.PeekU64(value+layout.ValueStringLengthOffset))
}

func TestUnregisteredRecord(t *testing.T) {
	mem, reg := build(t, remotetest.Flag{Name: "FFlagGhost", Kind: layout.KindFlag, Unregistered: true})
	rec, ok := Ref{Address: reg.Records["FFlagGhost"]}.Resolve(mem)
	require.True(t, ok)
	assert.True(t, rec.Unregistered())

	_, err := rec.ReadValue()
	assert.Error(t, err)
}

func TestReadValueKinds(t *testing.T) {
	mem, reg := build(t,
		remotetest.Flag{Name: "FStringA", Kind: layout.KindString, Str: "hello"},
		remotetest.Flag{Name: "FLogB", Kind: layout.KindLog, Int: 6},
		remotetest.Flag{Name: "FIntC", Kind: layout.KindInteger, Int: -9},
		remotetest.Flag{Name: "FFlagD", Kind: layout.KindFlag, Int: 0},
	)
	want := map[string]string{"FStringA": "hello", "FLogB": "6", "FIntC": "-9", "FFlagD": "false"}
	for name, w := range want {
		rec, ok := Ref{Address: reg.Records[name]}.Resolve(mem)
		require.True(t, ok, name)
		got, err := rec.ReadValue()
		require.NoError(t, err, name)
		assert.Equal(t, w, got, name)
	}
}

func TestSetOnNilRecord(t *testing.T) {
	var rec *Record
	assert.False(t, Set(rec, int32(1)))
	assert.False(t, rec.SetString("x"))
}
