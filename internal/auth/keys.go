package auth

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	hashKeyLen  = 64
	blockKeyLen = 32
)

// deriveKeys expands the configured secret into independent HMAC and AES
// keys for the cookie codec.
func deriveKeys(secret string) (hashKey, blockKey []byte, err error) {
	if len(secret) < 16 {
		return nil, nil, fmt.Errorf("session secret must be at least 16 bytes, got %d", len(secret))
	}
	r := hkdf.New(sha256.New, []byte(secret), []byte("threatconsole"), []byte("session-cookie"))
	hashKey = make([]byte, hashKeyLen)
	if _, err := io.ReadFull(r, hashKey); err != nil {
		return nil, nil, fmt.Errorf("derive hash key: %w", err)
	}
	blockKey = make([]byte, blockKeyLen)
	if _, err := io.ReadFull(r, blockKey); err != nil {
		return nil, nil, fmt.Errorf("derive block key: %w", err)
	}
	return hashKey, blockKey, nil
}
