// Package bytesutil provides bounds-checked helpers for reading and writing
// fixed-width fields in raw protocol buffers, plus hex rendering for
// diagnostics. All reads are big-endian (network byte order) and all returned
// slices are copies, never aliases of the input.
package bytesutil

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Field sizes in bytes.
const (
	ByteSize   = 1
	Uint16Size = 2
	Uint32Size = 4
)

// Uint16 reads a big-endian uint16 at offset.
func Uint16(data []byte, offset int) (uint16, error) {
	if err := checkBounds(data, offset, Uint16Size); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(data[offset:]), nil
}

// Uint32 reads a big-endian uint32 at offset.
func Uint32(data []byte, offset int) (uint32, error) {
	if err := checkBounds(data, offset, Uint32Size); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(data[offset:]), nil
}

// PutUint16 writes a big-endian uint16 at offset.
func PutUint16(data []byte, offset int, v uint16) error {
	if err := checkBounds(data, offset, Uint16Size); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(data[offset:], v)
	return nil
}

// PutUint32 writes a big-endian uint32 at offset.
func PutUint32(data []byte, offset int, v uint32) error {
	if err := checkBounds(data, offset, Uint32Size); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(data[offset:], v)
	return nil
}

// Sub returns a copy of data[offset : offset+length].
func Sub(data []byte, offset, length int) ([]byte, error) {
	if err := checkBounds(data, offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, data[offset:offset+length])
	return out, nil
}

// Clone returns a copy of data. A nil input yields an empty, non-nil slice so
// callers can hand the result out without nil checks.
func Clone(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// HexString renders data as two-digit hex bytes joined by sep.
func HexString(data []byte, sep string) string {
	if len(data) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteString(sep)
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

func checkBounds(data []byte, offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(data) {
		return fmt.Errorf("range [%d:%d] out of bounds for %d-byte buffer", offset, offset+length, len(data))
	}
	return nil
}
