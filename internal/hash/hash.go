// Package hash produces the hex sha256 digests recorded in the audit log.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
)

func Buffer(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// Lines digests lines regardless of their order.
func Lines(lines []string) string {
	sorted := slices.Clone(lines)
	slices.Sort(sorted)

	h := sha256.New()
	for i, line := range sorted {
		if i > 0 {
			h.Write([]byte{'\n'})
		}
		h.Write([]byte(line))
	}
	return hex.EncodeToString(h.Sum(nil))
}
