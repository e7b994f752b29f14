package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a memo key.
const MaxKeyLength = 512

// Keyer derives deterministic memo keys from call arguments.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a key for args within namespace.
	Key(namespace string, args any) (string, error)
}

// KeyerFunc adapts a function to the Keyer interface.
type KeyerFunc func(namespace string, args any) (string, error)

// Key calls f.
func (f KeyerFunc) Key(namespace string, args any) (string, error) {
	return f(namespace, args)
}

// DefaultKeyer generates SHA-256 based keys over the JSON encoding of args.
// encoding/json sorts map keys, so map insertion order never affects the key.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic key.
// Format: memo:<namespace>:<hash>
// where hash is the first 16 hex characters of SHA-256(JSON(args)).
func (k *DefaultKeyer) Key(namespace string, args any) (string, error) {
	encoded, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	sum := sha256.Sum256(encoded)
	key := "memo:" + namespace + ":" + hex.EncodeToString(sum[:8])
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// ValidateKey checks if a key is usable for memoization.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

var _ Keyer = (*DefaultKeyer)(nil)
