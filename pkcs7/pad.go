// Package pkcs7 implements padding for cryptographic purposes as specified
// in RFC 5652: Cryptographic Message Syntax (CMS)
package pkcs7

import (
	"bytes"
	"errors"
)

// ErrBadPadding is returned by Unpad when the trailing bytes do not form
// valid padding. With CBC that almost always means the wrong key was used.
var ErrBadPadding = errors.New("invalid pkcs7 padding")

// Pad b to a multiple of k bytes by appending 1..k bytes all holding the
// pad length. Input whose length is already a multiple of k gains a full
// block of padding so removal is always unambiguous.
func Pad(b []byte, k int) []byte {
	if k < 1 || k > 255 {
		panic("invalid k, must be 1 <= k <= 255")
	}

	padBytes := k - (len(b) % k)
	padding := bytes.Repeat([]byte{byte(padBytes)}, padBytes)
	return append(b, padding...)
}

// Unpad removes pkcs7 padding, verifying every padding byte.
func Unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrBadPadding
	}

	padBytes := int(b[len(b)-1])
	if padBytes == 0 || padBytes > len(b) {
		return nil, ErrBadPadding
	}

	for _, c := range b[len(b)-padBytes:] {
		if int(c) != padBytes {
			return nil, ErrBadPadding
		}
	}

	return b[:len(b)-padBytes], nil
}
