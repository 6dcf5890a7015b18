package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/DonkRonk17/SecureVault/pkcs7"
)

// encryptV1 creates this format:
// 8:magic|8:version|32:salt|16:iv|cbc(32:sha256|data)
// where the sha256 covers all header fields (magic, version, salt, iv)
// and the plain data. CBC has no built-in authentication; the digest
// preamble is what catches a wrong key or a tampered file.
func encryptV1(c config, key, salt, plaintext []byte) (encrypted []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, c.nonceSize)
	if n, err := rand.Read(iv); n != c.nonceSize || err != nil {
		return nil, fmt.Errorf("failed to get randomness for iv: %w", err)
	}

	header := containerHeader(c, salt, iv)

	sum := sha256.New()
	_, _ = sum.Write(header)
	_, _ = sum.Write(plaintext)
	digest := sum.Sum(nil)

	work := make([]byte, 0, sha256.Size+len(plaintext)+aes.BlockSize)
	work = append(work, digest...)
	work = append(work, plaintext...)
	work = pkcs7.Pad(work, aes.BlockSize)

	cbc := cipher.NewCBCEncrypter(block, iv)
	cbc.CryptBlocks(work, work)

	return append(header, work...), nil
}

func decryptV1(c config, key, encrypted []byte) (plaintext []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	headerLen := magicLen + c.saltSize + c.nonceSize
	body := encrypted[headerLen:]
	if len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return nil, ErrWrongPassphrase
	}

	iv := encrypted[magicLen+c.saltSize : headerLen]
	work := make([]byte, len(body))
	copy(work, body)

	cbc := cipher.NewCBCDecrypter(block, iv)
	cbc.CryptBlocks(work, work)

	// Padding failures are assumed to mean a wrong passphrase rather than
	// a broken file; the two cases must not be told apart anyway.
	work, err = pkcs7.Unpad(work)
	if err != nil || len(work) < sha256.Size {
		return nil, ErrWrongPassphrase
	}

	digest := work[:sha256.Size]
	plaintext = work[sha256.Size:]

	sum := sha256.New()
	_, _ = sum.Write(encrypted[:headerLen])
	_, _ = sum.Write(plaintext)

	if !bytes.Equal(digest, sum.Sum(nil)) {
		return nil, ErrWrongPassphrase
	}

	return plaintext, nil
}
