package parser

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"

	"github.com/yamaru/aalog-reader/internal/types"
)

// FileTime constants
const (
	// ticksPerMillisecond is the number of 100 ns FileTime ticks in a millisecond
	ticksPerMillisecond = 10_000
	// fileTimeUnixEpochMillis is 1970-01-01 expressed in milliseconds since 1601-01-01
	fileTimeUnixEpochMillis = 11_644_473_600_000
)

func checkBounds(buf []byte, off, width int) error {
	if off < 0 || off+width > len(buf) {
		return errors.Wrapf(types.ErrBufferTooShort, "need %d bytes at offset %d, have %d", width, off, len(buf))
	}
	return nil
}

// ReadUint16 reads a little-endian 16-bit unsigned integer at off
func ReadUint16(buf []byte, off int) (uint16, error) {
	if err := checkBounds(buf, off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[off : off+2]), nil
}

// ReadUint32 reads a little-endian 32-bit unsigned integer at off
func ReadUint32(buf []byte, off int) (uint32, error) {
	if err := checkBounds(buf, off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[off : off+4]), nil
}

// ReadInt32 reads a little-endian 32-bit signed integer at off
func ReadInt32(buf []byte, off int) (int32, error) {
	v, err := ReadUint32(buf, off)
	return int32(v), err
}

// ReadUint64 reads a little-endian 64-bit unsigned integer at off
func ReadUint64(buf []byte, off int) (uint64, error) {
	if err := checkBounds(buf, off, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[off : off+8]), nil
}

// ReadReversedID reads a 4-byte identifier stored with its bytes reversed:
// the byte at off+3 is the most significant byte of the result.
func ReadReversedID(buf []byte, off int) (uint32, error) {
	if err := checkBounds(buf, off, 4); err != nil {
		return 0, err
	}
	return uint32(buf[off+3])<<24 | uint32(buf[off+2])<<16 | uint32(buf[off+1])<<8 | uint32(buf[off]), nil
}

// ReadFileTime reads a Windows FILETIME (low word at off, high word at off+4)
// and returns it as local time truncated to millisecond precision.
func ReadFileTime(buf []byte, off int) (time.Time, error) {
	low, err := ReadUint32(buf, off)
	if err != nil {
		return time.Time{}, err
	}
	high, err := ReadUint32(buf, off+4)
	if err != nil {
		return time.Time{}, err
	}
	return FileTimeToTime(uint64(high)<<32 | uint64(low)), nil
}

// FileTimeToTime converts 100 ns ticks since 1601-01-01 UTC to local time.
// Sub-millisecond ticks are discarded.
func FileTimeToTime(ticks uint64) time.Time {
	millis := int64(ticks/ticksPerMillisecond) - fileTimeUnixEpochMillis
	return time.UnixMilli(millis).Local()
}

// TimeToFileTime converts t to 100 ns ticks since 1601-01-01 UTC
func TimeToFileTime(t time.Time) uint64 {
	return uint64(t.UnixMilli()+fileTimeUnixEpochMillis)*ticksPerMillisecond + uint64(t.Nanosecond()%int(time.Millisecond)/100)
}

// ReadUTF16String reads a null-terminated UTF-16LE string starting at off.
// It returns the string and its length in bytes, excluding the terminator.
func ReadUTF16String(buf []byte, off int) (string, int, error) {
	if off < 0 {
		return "", 0, errors.Wrapf(types.ErrBufferTooShort, "negative string offset %d", off)
	}

	end := off
	for {
		unit, err := ReadUint16(buf, end)
		if err != nil {
			return "", 0, errors.Wrapf(types.ErrBufferTooShort, "unterminated string at offset %d", off)
		}
		if unit == 0 {
			break
		}
		end += 2
	}

	length := end - off
	if length == 0 {
		return "", 0, nil
	}

	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(buf[off:end])
	if err != nil {
		return "", 0, errors.Wrapf(err, "decoding string at offset %d", off)
	}
	return string(decoded), length, nil
}

// readStringSequence reads consecutive null-terminated strings starting at off.
// Each string begins right after the terminator of the previous one.
func readStringSequence(buf []byte, off int, fields ...*string) error {
	for _, field := range fields {
		value, length, err := ReadUTF16String(buf, off)
		if err != nil {
			return err
		}
		*field = value
		off += length + 2
	}
	return nil
}
