package protocol

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// KeySize is the AES-256 key length in bytes
const KeySize = 32

// pbkdf2 parameters; both ends must agree, so they are fixed constants
// rather than configuration
var (
	derivationSalt = []byte("battleship.portside.v1")
)

const derivationIterations = 4096

// KeyProvider supplies the symmetric key for a connection. The derivation
// and exchange mechanism is deliberately pluggable; the server and client
// only require that both ends produce the same 32 bytes.
type KeyProvider interface {
	Key() ([]byte, error)
}

// StaticKey is a raw pre-shared 32-byte key, hex-encoded in configuration
type StaticKey string

// Key decodes the hex key and validates its length
func (k StaticKey) Key() ([]byte, error) {
	key, err := hex.DecodeString(string(k))
	if err != nil {
		return nil, fmt.Errorf("protocol: static key is not valid hex: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("protocol: static key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

// PassphraseKey derives the connection key from a shared passphrase with
// PBKDF2-SHA256. Identical passphrases derive identical keys on both ends.
type PassphraseKey string

// Key derives the AES-256 key from the passphrase
func (k PassphraseKey) Key() ([]byte, error) {
	if k == "" {
		return nil, fmt.Errorf("protocol: passphrase must not be empty")
	}
	return pbkdf2.Key([]byte(k), derivationSalt, derivationIterations, KeySize, sha256.New), nil
}
