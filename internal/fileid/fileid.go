// Package fileid derives stable identifiers for drop-folder images.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const (
	contentPrefix = "sha256:"
	pathPrefix    = "file:"
)

// ContentID returns an identifier for the bytes of an image.
// Copies of the same photo under different names share an ID.
func ContentID(data []byte) string {
	hash := sha256.Sum256(data)
	return contentPrefix + hex.EncodeToString(hash[:])
}

// PathID returns a stable identifier for a cleaned path. Used to key debounce state.
func PathID(path string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return pathPrefix + hex.EncodeToString(hash[:])
}
