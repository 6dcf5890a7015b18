// Package pwgen generates random passwords. Every character is drawn from
// crypto/rand; generated output frequently ends up stored as a secret, so
// a statistically seeded generator is never acceptable here.
package pwgen

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

var (
	alphabetUppercase    = `ABCDEFGHIJKLMNOPQRSTUVWXYZ`
	alphabetLowercase    = `abcdefghijklmnopqrstuvwxyz`
	alphabetNumbers      = `0123456789`
	alphabetBasicSymbols = `!@#$%^&*`
	alphabetExtraSymbols = `()_+-=<>,.{}[]\|?/~"\'` + "`"
)

var (
	// ErrImpossible is returned when the constraints cannot be met, for
	// example when the per-class minimums exceed the requested length.
	ErrImpossible = errors.New("password cannot be generated")
)

// Generate returns a password of exactly length characters drawn from
// letters and digits, plus the symbol alphabets when symbols is true.
func Generate(length int, symbols bool) (string, error) {
	if length < 1 {
		return "", errors.New("length must be at least 1")
	}

	basic, extra := -1, -1
	if symbols {
		basic, extra = 0, 0
	}

	return New(length, 0, 0, 0, basic, extra)
}

// New generates a password with per-class minimum counts. A count of 0
// includes the class in the random pool without a minimum; -1 excludes it
// entirely.
func New(length, upper, lower, numbers, basic, extra int) (string, error) {
	// The shuffle below indexes positions through single entropy bytes.
	if length < 1 || length > 255 {
		return "", errors.New("length must be between 1 and 255")
	}

	type class struct {
		alphabet string
		min      int
	}

	classes := make([]class, 0, 5)
	if upper >= 0 {
		classes = append(classes, class{alphabetUppercase, upper})
	}
	if lower >= 0 {
		classes = append(classes, class{alphabetLowercase, lower})
	}
	if numbers >= 0 {
		classes = append(classes, class{alphabetNumbers, numbers})
	}
	if basic >= 0 {
		classes = append(classes, class{alphabetBasicSymbols, basic})
	}
	if extra >= 0 {
		classes = append(classes, class{alphabetExtraSymbols, extra})
	}

	needLen := 0
	for _, c := range classes {
		needLen += c.min
	}
	if needLen > length {
		return "", ErrImpossible
	}

	randomPicks := length - needLen
	if randomPicks > 0 && len(classes) == 0 {
		return "", ErrImpossible
	}

	// One entropy byte per required character, two per free pick (class
	// choice then character), and one per position for the final shuffle.
	entropy := make([]byte, needLen+(randomPicks*2)+length)
	if n, err := rand.Read(entropy); err != nil {
		return "", errors.Wrap(err, "failed to generate entropy")
	} else if n != len(entropy) {
		return "", errors.New("failed to generate enough entropy")
	}

	password := make([]byte, 0, length)
	eOffset := 0

	for _, c := range classes {
		for i := c.min; i > 0; i-- {
			ln := byte(len(c.alphabet))
			password = append(password, c.alphabet[entropy[eOffset]%ln])
			eOffset++
		}
	}

	for i := randomPicks; i > 0; i-- {
		c := classes[entropy[eOffset]%byte(len(classes))]
		eOffset++

		ln := byte(len(c.alphabet))
		password = append(password, c.alphabet[entropy[eOffset]%ln])
		eOffset++
	}

	// Shuffle so the minimum-count characters are not clumped up front.
	for i := 0; i < length; i++ {
		swap := entropy[eOffset] % byte(length)
		password[i], password[swap] = password[swap], password[i]
		eOffset++
	}

	return string(password), nil
}
