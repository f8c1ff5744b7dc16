package merkletree

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDigest = errors.New("invalid hex digest")

// Digest is a hash value produced by a Tree: a leaf digest or the root.
//
// The textual form is uppercase hex, as printed by %s, %v and %X.
// MarshalText produces the same form so digests round-trip through JSON.
type Digest []byte

// ParseDigest decodes a hex digest in either case.
func ParseDigest(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	return Digest(b), nil
}

// String returns the digest as uppercase hex.
func (d Digest) String() string {
	return strings.ToUpper(hex.EncodeToString(d))
}

// Format implements fmt.Formatter so that %x prints lowercase hex and
// every other verb prints the uppercase form.
func (d Digest) Format(f fmt.State, verb rune) {
	switch verb {
	case 'x':
		fmt.Fprint(f, hex.EncodeToString(d))
	case 'v':
		if f.Flag('#') {
			fmt.Fprintf(f, "merkletree.Digest(%s)", d.String())
			return
		}
		fmt.Fprint(f, d.String())
	default:
		fmt.Fprint(f, d.String())
	}
}

// Equal reports whether both digests hold the same bytes.
func (d Digest) Equal(other Digest) bool {
	return bytes.Equal(d, other)
}

// Bytes returns the raw digest bytes.
func (d Digest) Bytes() []byte {
	return d
}

// MarshalText encodes the digest as uppercase hex.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes hex text of either case.
func (d *Digest) UnmarshalText(s []byte) error {
	buffer := make([]byte, hex.DecodedLen(len(s)))
	n, err := hex.Decode(buffer, s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	*d = buffer[:n]
	return nil
}
