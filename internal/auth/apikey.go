// Package auth hashes and verifies API keys for write endpoints.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash is returned for a stored hash not in "salt$hash" form.
var ErrMalformedHash = errors.New("malformed api key hash")

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// HashKey returns a salted Argon2id hash of key encoded as "salt$hash".
func HashKey(key string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(key), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return base64.StdEncoding.EncodeToString(salt) + "$" + base64.StdEncoding.EncodeToString(hash), nil
}

// VerifyKey compares key with an encoded hash produced by HashKey.
func VerifyKey(key, encoded string) (bool, error) {
	salt64, hash64, ok := strings.Cut(encoded, "$")
	if !ok {
		return false, ErrMalformedHash
	}
	salt, err := base64.StdEncoding.DecodeString(salt64)
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	want, err := base64.StdEncoding.DecodeString(hash64)
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}
	got := argon2.IDKey([]byte(key), salt, argonTime, argonMemory, argonThreads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// KeySet verifies presented keys against configured hashes.
type KeySet struct {
	hashes []string
}

// NewKeySet validates the format of every hash up front.
func NewKeySet(hashes []string) (*KeySet, error) {
	ks := &KeySet{}
	for i, h := range hashes {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, _, ok := strings.Cut(h, "$"); !ok {
			return nil, fmt.Errorf("api key hash %d: %w", i, ErrMalformedHash)
		}
		ks.hashes = append(ks.hashes, h)
	}
	return ks, nil
}

// Enabled reports whether any key is configured.
func (ks *KeySet) Enabled() bool {
	return ks != nil && len(ks.hashes) > 0
}

// Verify reports whether key matches any configured hash.
func (ks *KeySet) Verify(key string) bool {
	if key == "" || !ks.Enabled() {
		return false
	}
	for _, h := range ks.hashes {
		if ok, err := VerifyKey(key, h); err == nil && ok {
			return true
		}
	}
	return false
}
