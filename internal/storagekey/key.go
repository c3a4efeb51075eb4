// Package storagekey maps logical file names to fixed-width storage
// identifiers.
//
// A key is the lowercase hex form of a 128-bit BLAKE2b digest of the logical
// name. Keys are safe as file and object names whatever the original name
// contained. For n distinct names the chance of any collision is about
// n^2 / 2^129; the artifact index detects the rare case anyway.
package storagekey

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	// Size is the digest size in bytes.
	Size = 16
	// Len is the length of a key in hex characters.
	Len = 2 * Size

	// ArtifactSuffix marks a stored artifact.
	ArtifactSuffix = ".tmp"
	// TransitSuffix marks an artifact inside a batch archive.
	TransitSuffix = ArtifactSuffix + ".zip"
)

// Of returns the key for logicalName.
func Of(logicalName string) string {
	h, err := blake2b.New(Size, nil)
	if err != nil {
		// only possible with an invalid size or key
		panic(err)
	}
	h.Write([]byte(logicalName))
	return hex.EncodeToString(h.Sum(nil))
}

// Valid reports whether key has the shape produced by Of.
func Valid(key string) bool {
	if len(key) != Len {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}

// ArtifactName is the stored name of key: "<key>.tmp".
func ArtifactName(key string) string { return key + ArtifactSuffix }

// TransitName is the archive entry name of key: "<key>.tmp.zip".
func TransitName(key string) string { return key + TransitSuffix }

// FromTransitName parses an archive entry name back into a key.
func FromTransitName(name string) (string, error) {
	key, ok := strings.CutSuffix(name, TransitSuffix)
	if !ok || !Valid(key) {
		return "", fmt.Errorf("invalid archive entry name %q", name)
	}
	return key, nil
}

// FromArtifactName parses a stored artifact name back into a key.
func FromArtifactName(name string) (string, error) {
	key, ok := strings.CutSuffix(name, ArtifactSuffix)
	if !ok || !Valid(key) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return key, nil
}
