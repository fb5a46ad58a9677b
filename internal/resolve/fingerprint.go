package resolve

import (
	"encoding/hex"

	"github.com/joshuapare/flagkit/internal/remote"
	"golang.org/x/crypto/blake2b"
)

// fingerprintSpan covers the image headers, which carry the link timestamp
// and section table of the build.
const fingerprintSpan = 0x1000

// Fingerprint returns a hex digest identifying the build of mod, or "" when
// the headers cannot be read.
func Fingerprint(mem remote.Memory, mod remote.Module) string {
	n := min(uint64(fingerprintSpan), mod.Size)
	if n == 0 {
		return ""
	}
	b := mem.ReadBytes(mod.Base, n)
	if b == nil {
		return ""
	}
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}
