package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/flagkit/internal/remote"
	"github.com/joshuapare/flagkit/internal/remote/remotetest"
)

const modBase = 0x1_4000_0000

func newModule(mem *remotetest.Memory, size uint64) remote.Module {
	mod := remote.Module{Name: "client.exe", Base: modBase, Size: size}
	mem.AddModule(mod)
	return mod
}

func TestFindFirstConcreteBytes(t *testing.T) {
	mem := remotetest.New()
	code := make([]byte, 0x1000)
	copy(code[120:], []byte{0xA1, 0xB2, 0xC3})
	mem.Map(modBase, code, remote.ProtRead|remote.ProtExec)
	mod := newModule(mem, 0x1000)

	s := New(mem, mod, Options{})
	sig := NewSignature([]byte{0xA1, 0xB2, 0xC3}, DefaultWildcard)

	assert.Equal(t, uint64(modBase+120), s.FindFirst(sig))
	assert.Equal(t, []uint64{modBase + 120}, s.FindAll(sig))
}

func TestFindWildcard(t *testing.T) {
	mem := remotetest.New()
	code := make([]byte, 0x2000)
	copy(code[0x10:], remotetest.SingletonCode)
	copy(code[0x1800:], []byte{0x48, 0x83, 0xEC, 0x38, 0x48, 0x8B, 0x0D, 1, 2, 3, 4, 0x4C, 0x8D, 0x05})
	mem.Map(modBase, code, remote.ProtRead|remote.ProtExec)
	mod := newModule(mem, 0x2000)

	s := New(mem, mod, Options{})
	sig := MustParse("48 83 EC 38 48 8B 0D ?? ?? ?? ?? 4C 8D 05")

	assert.Equal(t, uint64(modBase+0x10), s.FindFirst(sig))
	assert.Equal(t, []uint64{modBase + 0x10, modBase + 0x1800}, s.FindAll(sig))
}

func TestFindNoMatch(t *testing.T) {
	mem := remotetest.New()
	mem.Map(modBase, make([]byte, 0x1000), remote.ProtRead)
	mod := newModule(mem, 0x1000)

	s := New(mem, mod, Options{})
	sig := MustParse("DE AD BE EF")
	assert.Zero(t, s.FindFirst(sig))
	assert.Empty(t, s.FindAll(sig))
}

func TestFindSkipsUnreadableRegions(t *testing.T) {
	mem := remotetest.New()
	needle := []byte{0x11, 0x22, 0x33, 0x44}

	guarded := make([]byte, 0x1000)
	copy(guarded[8:], needle)
	mem.Map(modBase, guarded, remote.ProtRead|remote.ProtGuard)

	execOnly := make([]byte, 0x1000)
	copy(execOnly[8:], needle)
	mem.Map(modBase+0x1000, execOnly, remote.ProtExec)

	mem.Reserve(modBase+0x2000, 0x1000)

	readable := make([]byte, 0x1000)
	copy(readable[0x40:], needle)
	mem.Map(modBase+0x3000, readable, remote.ProtRead|remote.ProtWrite)

	mod := newModule(mem, 0x4000)
	s := New(mem, mod, Options{})

	assert.Equal(t, []uint64{modBase + 0x3040}, s.FindAll(NewSignature(needle, DefaultWildcard)))
}

func TestFindSkipsFailedReads(t *testing.T) {
	mem := remotetest.New()
	needle := []byte{0x11, 0x22, 0x33, 0x44}

	first := make([]byte, 0x1000)
	copy(first[8:], needle)
	mem.Map(modBase, first, remote.ProtRead)
	mem.FailReads(modBase)

	second := make([]byte, 0x1000)
	copy(second[0x20:], needle)
	mem.Map(modBase+0x1000, second, remote.ProtRead)

	mod := newModule(mem, 0x2000)
	s := New(mem, mod, Options{})
	assert.Equal(t, uint64(modBase+0x1020), s.FindFirst(NewSignature(needle, DefaultWildcard)))
}

func TestFindProbesPastFailedQueries(t *testing.T) {
	mem := remotetest.New()
	needle := []byte{0x55, 0x66, 0x77}

	data := make([]byte, 0x3000)
	copy(data[0x10:], needle)
	copy(data[0x2010:], needle)
	mem.Map(modBase, data, remote.ProtRead)
	// No metadata for the first two pages; the scanner steps past them one
	// probe at a time, then reads the rest of the region from the third page.
	mem.FailQuery(modBase, 0x2000)

	mod := newModule(mem, 0x3000)
	s := New(mem, mod, Options{})
	assert.Equal(t, []uint64{modBase + 0x2010}, s.FindAll(NewSignature(needle, DefaultWildcard)))
}

func TestFindClampsToModuleEnd(t *testing.T) {
	mem := remotetest.New()
	data := make([]byte, 0x2000)
	copy(data[0x1800:], []byte{0x9A, 0x9B})
	mem.Map(modBase, data, remote.ProtRead)

	// The module covers only the first page of the region.
	mod := newModule(mem, 0x1000)
	s := New(mem, mod, Options{})
	assert.Zero(t, s.FindFirst(MustParse("9A 9B")))
}

func TestEmptyModuleOrSignature(t *testing.T) {
	mem := remotetest.New()
	s := New(mem, remote.Module{Base: modBase}, Options{})
	assert.Zero(t, s.FindFirst(MustParse("01")))

	s = New(mem, remote.Module{Base: modBase, Size: 0x1000}, Options{})
	assert.Zero(t, s.FindFirst(Signature{}))
	require.Nil(t, s.FindAll(Signature{}))
}
