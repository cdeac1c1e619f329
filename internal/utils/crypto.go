// internal/utils/crypto.go
package utils

import (
	"encoding/hex"
	"mime"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ContentHash returns the hex BLAKE2b-256 digest of data.
func ContentHash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ContentKey builds a content-addressed object key under prefix. The same
// bytes always map to the same key, so a repeated upload overwrites itself.
func ContentKey(prefix string, data []byte, contentType string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + ContentHash(data)[:32] + ExtensionFor(contentType)
}

// ExtensionFor maps an image content type to a file extension, defaulting
// to .jpg.
func ExtensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".jpg"
	}
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
