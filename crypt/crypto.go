// Package crypt derives keys from a master passphrase and encodes the
// encrypted vault container. The container format is versioned so the
// on-disk layout can change without breaking old files.
package crypt

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
)

// Errors returned from decoding and key derivation.
var (
	ErrInvalidMagic    = errors.New("invalid magic string")
	ErrWrongPassphrase = errors.New("incorrect passphrase")
	ErrUnknownVersion  = errors.New("unknown container version")
	ErrInvalidKey      = errors.New("key size is wrong for the cipher")
	ErrInvalidSalt     = errors.New("salt size is wrong")
	ErrEmptyPassphrase = errors.New("passphrase must not be empty")
)

const (
	magicLen = 16
	magicStr = "securevt"
)

// CurrentVersion is the container version written for every new save.
// Older versions remain readable; Decrypt reports which one it found.
const CurrentVersion = 2

// config represents a configuration for the encryption/decryption behavior
// of one container version.
type config struct {
	version   int
	saltSize  int
	nonceSize int
	keySize   int

	encrypt encryptFn
	decrypt decryptFn
}

// These are set per version. They are not an interface since a version is
// more of a configuration than a separate type, and versions can borrow
// implementations from each other.
type (
	encryptFn func(c config, key, salt, plaintext []byte) (encrypted []byte, err error)
	decryptFn func(c config, key, encrypted []byte) (plaintext []byte, err error)
)

var versions = map[int]config{
	// Version 1 is the legacy CBC format, kept only so old files unlock.
	1: {version: 1, saltSize: 32, nonceSize: 16, keySize: 32, encrypt: encryptV1, decrypt: decryptV1},
	// Version 2 is authenticated (AES-256-GCM) and is what new saves use.
	2: {version: 2, saltSize: 32, nonceSize: 12, keySize: 32, encrypt: encryptV2, decrypt: decryptV2},
}

// Encrypt produces a full container (header, salt, nonce, ciphertext) for
// the given version. A fresh random nonce is drawn on every call, so
// encrypting the same plaintext twice never yields the same bytes.
func Encrypt(version int, key, salt, plaintext []byte) (encrypted []byte, err error) {
	c, err := getVersion(version)
	if err != nil {
		return nil, err
	}
	if len(key) != c.keySize {
		return nil, ErrInvalidKey
	}
	if len(salt) != c.saltSize {
		return nil, ErrInvalidSalt
	}

	return c.encrypt(c, key, salt, plaintext)
}

// DecryptMeta holds things that are not the plain text but are needed to
// re-encrypt without paying for another key derivation.
type DecryptMeta struct {
	Version int
	Key     []byte
	Salt    []byte
}

// Decrypt parses a container, derives the key from the embedded salt and
// the passphrase, and decrypts. A wrong passphrase and a tampered
// container are indistinguishable; both return ErrWrongPassphrase.
func Decrypt(passphrase, encrypted []byte) (meta DecryptMeta, plaintext []byte, err error) {
	version, err := Inspect(encrypted)
	if err != nil {
		return meta, nil, err
	}

	c := versions[version]
	if len(encrypted) < magicLen+c.saltSize+c.nonceSize {
		return meta, nil, ErrInvalidMagic
	}

	salt := append([]byte(nil), encrypted[magicLen:magicLen+c.saltSize]...)
	key, err := DeriveKey(version, passphrase, salt)
	if err != nil {
		return meta, nil, err
	}

	plaintext, err = c.decrypt(c, key, encrypted)
	if err != nil {
		Zero(key)
		return meta, nil, err
	}

	return DecryptMeta{Version: version, Key: key, Salt: salt}, plaintext, nil
}

// Inspect verifies the container header and returns the format version
// without needing a passphrase.
func Inspect(encrypted []byte) (version int, err error) {
	if len(encrypted) < magicLen {
		return 0, ErrInvalidMagic
	}
	if !bytes.Equal([]byte(magicStr), encrypted[:magicLen/2]) {
		return 0, ErrInvalidMagic
	}

	v, err := strconv.ParseInt(string(encrypted[magicLen/2:magicLen]), 10, 32)
	if err != nil {
		return 0, ErrInvalidMagic
	}

	version = int(v)
	if _, ok := versions[version]; !ok {
		return version, ErrUnknownVersion
	}

	return version, nil
}

// NewSalt returns a fresh random salt of the size the version requires.
func NewSalt(version int) ([]byte, error) {
	c, err := getVersion(version)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, c.saltSize)
	if n, err := rand.Read(salt); n != c.saltSize || err != nil {
		return nil, fmt.Errorf("failed to get randomness for salt: %w", err)
	}

	return salt, nil
}

// Zero overwrites b. Derived keys and decrypted buffers must go through
// here before they fall out of scope.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func getVersion(version int) (config, error) {
	c, ok := versions[version]
	if !ok {
		return c, ErrUnknownVersion
	}

	return c, nil
}

// containerHeader builds magic|version|salt|nonce, the plaintext prefix of
// every container.
func containerHeader(c config, salt, nonce []byte) []byte {
	header := make([]byte, magicLen+c.saltSize+c.nonceSize)
	copy(header, fmt.Sprintf("%s%08d", magicStr, c.version))
	copy(header[magicLen:], salt)
	copy(header[magicLen+c.saltSize:], nonce)
	return header
}
