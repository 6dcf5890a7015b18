package pkcs7

import (
	"bytes"
	"errors"
	"testing"
)

func TestPad(t *testing.T) {
	t.Parallel()

	padded := Pad([]byte{1, 2, 3}, 4)
	if want := []byte{1, 2, 3, 1}; !bytes.Equal(want, padded) {
		t.Errorf("want: %v, got: %v", want, padded)
	}

	// aligned input gains a full block of padding
	padded = Pad([]byte{1, 2, 3, 4}, 4)
	if want := []byte{1, 2, 3, 4, 4, 4, 4, 4}; !bytes.Equal(want, padded) {
		t.Errorf("want: %v, got: %v", want, padded)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for length := 0; length < 33; length++ {
		in := bytes.Repeat([]byte{0xab}, length)

		out, err := Unpad(Pad(in, 16))
		if err != nil {
			t.Errorf("len %d: %v", length, err)
		}
		if !bytes.Equal(in, out) {
			t.Errorf("len %d: round trip mismatch", length)
		}
	}
}

func TestUnpadErrors(t *testing.T) {
	t.Parallel()

	cases := [][]byte{
		nil,
		{0},
		{5, 5, 5},
		{1, 2, 3, 4},
	}

	for i, in := range cases {
		if _, err := Unpad(in); !errors.Is(err, ErrBadPadding) {
			t.Errorf("%d) want ErrBadPadding, got: %v", i, err)
		}
	}
}
