package parser

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamaru/aalog-reader/internal/types"
	"github.com/yamaru/aalog-reader/test/fixtures"
)

func TestReadIntegers(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}

	v16, err := ReadUint16(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0302), v16)

	v32, err := ReadUint32(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), v32)

	v64, err := ReadUint64(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0908070605040302), v64)

	signed, err := ReadInt32([]byte{0xFF, 0xFF, 0xFF, 0xFF}, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), signed)
}

func TestReadIntegers_BufferTooShort(t *testing.T) {
	buf := make([]byte, 8)

	tests := []struct {
		name string
		read func() error
	}{
		{"uint16 at end", func() error { _, err := ReadUint16(buf, 7); return err }},
		{"uint32 past end", func() error { _, err := ReadUint32(buf, 5); return err }},
		{"uint64 past end", func() error { _, err := ReadUint64(buf, 1); return err }},
		{"negative offset", func() error { _, err := ReadUint32(buf, -1); return err }},
		{"reversed id past end", func() error { _, err := ReadReversedID(buf, 6); return err }},
		{"file time high word past end", func() error { _, err := ReadFileTime(buf, 4); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read()
			assert.True(t, errors.Is(err, types.ErrBufferTooShort), "got %v", err)
		})
	}
}

func TestReadReversedID(t *testing.T) {
	buf := []byte{0x00, 0x0D, 0x0C, 0x0B, 0x0A}

	id, err := ReadReversedID(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0A0B0C0D), id)

	// The byte at off+3 is the most significant, so the id equals a plain
	// little-endian read of the stored bytes, not of their reversal
	assert.Equal(t, binary.LittleEndian.Uint32(buf[1:5]), id)

	ids := []uint32{0, 1, 0x01020304, 0xDEADBEEF, 0xFFFFFFFF}
	for _, want := range ids {
		got, err := ReadReversedID(fixtures.ReversedID(want), 0)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReadFileTime(t *testing.T) {
	want := time.Date(2024, 8, 24, 12, 30, 15, 123*int(time.Millisecond), time.UTC)
	// 4567 extra ticks (456.7 µs) must be discarded
	ticks := fixtures.FileTime(want) + 4567

	buf := make([]byte, 10)
	binary.LittleEndian.PutUint32(buf[2:6], uint32(ticks))
	binary.LittleEndian.PutUint32(buf[6:10], uint32(ticks>>32))

	got, err := ReadFileTime(buf, 2)
	require.NoError(t, err)
	assert.True(t, want.Equal(got), "want %v, got %v", want, got)
	assert.Equal(t, time.Local, got.Location())
	assert.Zero(t, got.Nanosecond()%int(time.Millisecond))
}

func TestFileTimeConversions(t *testing.T) {
	assert.True(t, time.Unix(0, 0).Equal(FileTimeToTime(116_444_736_000_000_000)))
	assert.True(t, time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC).Equal(FileTimeToTime(0)))

	moment := time.Date(2023, 2, 3, 4, 5, 6, 789_000_000, time.UTC)
	assert.Equal(t, fixtures.FileTime(moment), TimeToFileTime(moment))
	assert.True(t, moment.Equal(FileTimeToTime(TimeToFileTime(moment))))
}

func TestReadUTF16String(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"ascii", "aaEngine"},
		{"spaces and punctuation", "Script timed out: 30s"},
		{"latin1", "Zähler überlauf"},
		{"cyrillic", "Журнал"},
		{"single char", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := append([]byte{0xAA, 0xBB}, fixtures.EncodeUTF16(tt.value)...)
			buf = append(buf, 0xCC)

			value, length, err := ReadUTF16String(buf, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.value, value)
			assert.Equal(t, 2*len([]rune(tt.value)), length)
		})
	}
}

func TestReadUTF16String_Empty(t *testing.T) {
	value, length, err := ReadUTF16String([]byte{0, 0, 'a', 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, value)
	assert.Zero(t, length)
}

func TestReadUTF16String_Unterminated(t *testing.T) {
	buf := fixtures.EncodeUTF16("abc")
	buf = buf[:len(buf)-2]

	_, _, err := ReadUTF16String(buf, 0)
	assert.True(t, errors.Is(err, types.ErrBufferTooShort), "got %v", err)

	_, _, err = ReadUTF16String(buf, len(buf))
	assert.True(t, errors.Is(err, types.ErrBufferTooShort), "got %v", err)
}

func TestReadStringSequence(t *testing.T) {
	var buf []byte
	for _, s := range []string{"Info", "", "done"} {
		buf = append(buf, fixtures.EncodeUTF16(s)...)
	}

	var first, second, third string
	require.NoError(t, readStringSequence(buf, 0, &first, &second, &third))
	assert.Equal(t, "Info", first)
	assert.Empty(t, second)
	assert.Equal(t, "done", third)
}
