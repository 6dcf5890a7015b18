package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// encryptV2 creates this format:
// 8:magic|8:version|32:salt|12:nonce|gcm(data)
// The whole header is bound in as additional authenticated data, so
// neither the ciphertext nor the header can be altered undetected.
func encryptV2(c config, key, salt, plaintext []byte) (encrypted []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, c.nonceSize)
	if n, err := rand.Read(nonce); n != c.nonceSize || err != nil {
		return nil, fmt.Errorf("failed to get randomness for nonce: %w", err)
	}

	header := containerHeader(c, salt, nonce)
	sealed := gcm.Seal(nil, nonce, plaintext, header)

	return append(header, sealed...), nil
}

func decryptV2(c config, key, encrypted []byte) (plaintext []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	headerLen := magicLen + c.saltSize + c.nonceSize
	header := encrypted[:headerLen]
	nonce := encrypted[magicLen+c.saltSize : headerLen]

	plaintext, err = gcm.Open(nil, nonce, encrypted[headerLen:], header)
	if err != nil {
		return nil, ErrWrongPassphrase
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}
