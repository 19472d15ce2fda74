package hashcheck

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
)

// Encoding is a representation of digest input or output.
type Encoding int

const (
	// Raw is raw bytes for output and plain text for input.
	Raw Encoding = iota

	// Hex is lower-case hexadecimal.
	Hex

	// Base64 is standard, padded base64.
	Base64
)

func (e Encoding) String() string {
	switch e {
	case Raw:
		return "raw"
	case Hex:
		return "hex"
	case Base64:
		return "base64"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// Encode returns b in this encoding. It panics on an unknown encoding.
func (e Encoding) Encode(b []byte) string {
	switch e {
	case Raw:
		return string(b)
	case Hex:
		return hex.EncodeToString(b)
	case Base64:
		return base64.StdEncoding.EncodeToString(b)
	default:
		panic("hashcheck: unknown encoding " + e.String())
	}
}

// Decode returns the bytes represented by s in this encoding.
func (e Encoding) Decode(s string) ([]byte, error) {
	switch e {
	case Raw:
		return []byte(s), nil
	case Hex:
		return hex.DecodeString(s)
	case Base64:
		return base64.StdEncoding.DecodeString(s)
	default:
		return nil, errors.Errorf("hashcheck: unknown encoding %s", e)
	}
}
