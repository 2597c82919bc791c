// Package upper provides uppercase Drivers.
//
// ASCII is the default. It only touches the bytes a-z, so every chunk can be
// mapped on its own and multi-byte UTF-8 sequences pass through untouched.
// Unicode applies full Unicode case mapping and carries any incomplete
// UTF-8 sequence at the end of a chunk over to the next one.
package upper

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"

	"github.com/jbvmio/fstream/driver"
)

// Modes accepted by New.
const (
	ModeASCII   = `ascii`
	ModeUnicode = `unicode`
)

// New returns the Driver for mode. An empty mode selects ASCII.
func New(mode string) (driver.Driver, bool) {
	switch mode {
	case "", ModeASCII:
		return NewASCII(), true
	case ModeUnicode:
		return NewUnicode(), true
	default:
		return nil, false
	}
}

// ASCII maps a-z to A-Z.
type ASCII struct{}

// NewASCII returns an ASCII Driver.
func NewASCII() *ASCII {
	return &ASCII{}
}

// Process implements driver.Driver.
func (ASCII) Process(b []byte) ([]byte, error) {
	out := make([]byte, len(b))
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return out, nil
}

// Flush implements driver.Driver.
func (ASCII) Flush() ([]byte, error) {
	return nil, nil
}

// Boundary implements driver.Driver.
func (ASCII) Boundary() driver.Boundary {
	return driver.Independent
}

// Unicode maps text to its Unicode uppercase form.
type Unicode struct {
	t     transform.Transformer
	carry []byte
}

// NewUnicode returns a Unicode Driver.
func NewUnicode() *Unicode {
	return &Unicode{
		t: cases.Upper(language.Und),
	}
}

// Process implements driver.Driver.
func (u *Unicode) Process(b []byte) ([]byte, error) {
	return u.apply(b)
}

// Flush implements driver.Driver.
// The carry only ever holds an incomplete UTF-8 sequence, which is passed
// through unchanged once the stream ends.
func (u *Unicode) Flush() ([]byte, error) {
	tail := u.carry
	u.carry = nil
	u.t.Reset()
	return tail, nil
}

// Boundary implements driver.Driver.
func (u *Unicode) Boundary() driver.Boundary {
	return driver.Carry
}

func (u *Unicode) apply(b []byte) ([]byte, error) {
	src := b
	if len(u.carry) > 0 {
		src = append(u.carry, b...)
		u.carry = nil
	}
	if len(src) == 0 {
		return nil, nil
	}
	dst := make([]byte, len(src)+utf8.UTFMax)
	out := make([]byte, 0, len(src))
	for {
		nDst, nSrc, err := u.t.Transform(dst, src, false)
		out = append(out, dst[:nDst]...)
		src = src[nSrc:]
		switch err {
		case nil:
			return out, nil
		case transform.ErrShortDst:
			if nDst == 0 && nSrc == 0 {
				dst = make([]byte, 2*len(dst))
			}
		case transform.ErrShortSrc:
			u.carry = append([]byte(nil), src...)
			return out, nil
		default:
			return out, err
		}
	}
}
