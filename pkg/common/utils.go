package common

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ValidateGDFMagic checks if the given bytes are the GDF volume descriptor
// magic literal.
func ValidateGDFMagic(magic [20]byte) error {
	const want = "MICROSOFT*XBOX*MEDIA"
	if string(magic[:]) != want {
		return fmt.Errorf("invalid GDF volume magic: expected %q, got %q", want, string(magic[:]))
	}
	return nil
}

// ReadUint16LE reads a uint16 in little-endian format
func ReadUint16LE(reader io.Reader) (uint16, error) {
	var value uint16
	err := binary.Read(reader, binary.LittleEndian, &value)
	return value, err
}

// ReadUint32LE reads a uint32 in little-endian format
func ReadUint32LE(reader io.Reader) (uint32, error) {
	var value uint32
	err := binary.Read(reader, binary.LittleEndian, &value)
	return value, err
}

// ReadUint32BE reads a uint32 in big-endian format
func ReadUint32BE(reader io.Reader) (uint32, error) {
	var value uint32
	err := binary.Read(reader, binary.BigEndian, &value)
	return value, err
}

// ReadBytes reads a specified number of bytes
func ReadBytes(reader io.Reader, count int) ([]byte, error) {
	buffer := make([]byte, count)
	n, err := io.ReadFull(reader, buffer)
	if err != nil {
		return nil, err
	}
	if n != count {
		return nil, fmt.Errorf("expected to read %d bytes, got %d", count, n)
	}
	return buffer, nil
}

// SkipBytes skips a specified number of bytes in the reader
func SkipBytes(reader io.Reader, count int) error {
	_, err := io.CopyN(io.Discard, reader, int64(count))
	return err
}

// AlignUp rounds offset up to the next multiple of align (align must be a
// power of two). Used when walking GDF directory records, which are padded
// to 4-byte boundaries.
func AlignUp(offset, align int) int {
	return (offset + align - 1) &^ (align - 1)
}
