package cache

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/minio/highwayhash"

	"dartbridge/internal/engine/graph"
)

// hashKey is fixed: hashes must be stable across processes and runs, they
// carry no security weight.
var hashKey = []byte("dartbridge.incremental.cache.v1!")

// ContentHash hashes raw file content for change detection.
func ContentHash(data []byte) string {
	sum := highwayhash.Sum128(data, hashKey)
	return hex.EncodeToString(sum[:])
}

// HashFile streams a file through the content hash. Errors surface so the
// caller can fail open and treat the file as changed.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := highwayhash.New128(hashKey)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IdentityHash names a file's cache blob: a short stable digest of the
// identity itself, not the content.
func IdentityHash(file graph.FileIdentity) string {
	sum := highwayhash.Sum64([]byte(file), hashKey)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (8 * i))
	}
	return hex.EncodeToString(buf[:])
}
