package crypt

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// kdfIterations is fixed so every vault costs the same to unlock.
// Changing it requires a new container version, never a per-call knob.
const kdfIterations = 100000

// DeriveKey stretches a passphrase into the symmetric key for a container
// version using PBKDF2-HMAC-SHA256. It is deterministic: the same
// passphrase and salt always produce the same key, which is what makes
// unlocking across sessions possible.
func DeriveKey(version int, passphrase, salt []byte) ([]byte, error) {
	c, err := getVersion(version)
	if err != nil {
		return nil, err
	}
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if len(salt) != c.saltSize {
		return nil, ErrInvalidSalt
	}

	return pbkdf2.Key(passphrase, salt, kdfIterations, c.keySize, sha256.New), nil
}
