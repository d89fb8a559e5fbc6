package fixtures

import (
	"encoding/binary"
	"time"

	"golang.org/x/text/encoding/unicode"
)

const (
	headerFixedSize = 56
	recordFixedSize = 32

	// fileTimeUnixEpochTicks is 1970-01-01 expressed in 100 ns ticks since 1601-01-01
	fileTimeUnixEpochTicks = 116_444_736_000_000_000
)

// RecordSpec describes one record to encode
type RecordSpec struct {
	SessionID   uint32
	ProcessID   uint32
	ThreadID    uint32
	EventTime   time.Time
	LogFlag     string
	Component   string
	Message     string
	ProcessName string

	// Length pads the encoded record to this many bytes when larger than needed
	Length uint32
	// CorruptLength writes 0 into the length field
	CorruptLength bool
}

// FileSpec describes one .aalog file to encode
type FileSpec struct {
	MsgStartingNumber uint64
	StartTime         time.Time
	EndTime           time.Time
	ComputerName      string
	Session           string
	PrevFileName      string

	// HeaderLength pads the encoded header to this many bytes when larger than needed
	HeaderLength uint32
	// MsgCount overrides len(Records) in the header when non-nil
	MsgCount *uint32
	// OmitOffsets writes 0 into the first/last record offsets
	OmitOffsets bool

	Records []RecordSpec
}

// SampleFileSpec returns a file with messages 100..102 at offsets 64, 140 and 210
func SampleFileSpec() FileSpec {
	base := time.Date(2024, 8, 24, 12, 0, 0, 0, time.UTC)
	return FileSpec{
		MsgStartingNumber: 100,
		StartTime:         base,
		EndTime:           base.Add(3 * time.Second),
		HeaderLength:      64,
		Records: []RecordSpec{
			{
				SessionID: 0x01020304, ProcessID: 4120, ThreadID: 7,
				EventTime: base.Add(1 * time.Second),
				LogFlag:   "Info", Component: "Eng", Message: "start", ProcessName: "p1",
				Length: 76,
			},
			{
				SessionID: 0x01020304, ProcessID: 4120, ThreadID: 8,
				EventTime: base.Add(2 * time.Second),
				LogFlag:   "Warn", Component: "Eng", Message: "slow", ProcessName: "p1",
				Length: 70,
			},
			{
				SessionID: 0x0A0B0C0D, ProcessID: 5310, ThreadID: 1,
				EventTime: base.Add(3*time.Second + 250*time.Millisecond),
				LogFlag:   "Error", Component: "Eng", Message: "fail", ProcessName: "p2",
			},
		},
	}
}

// SampleOffsets are the record offsets produced by SampleFileSpec
func SampleOffsets() []uint32 {
	return []uint32{64, 140, 210}
}

// GeneratedFileSpec returns a file with count records numbered from start
func GeneratedFileSpec(start uint64, count int, prevFileName string) FileSpec {
	base := time.Date(2024, 8, 24, 12, 0, 0, 0, time.UTC).Add(time.Duration(start) * time.Second)
	spec := FileSpec{
		MsgStartingNumber: start,
		StartTime:         base,
		EndTime:           base.Add(time.Duration(count) * time.Second),
		ComputerName:      "HISTORIAN01",
		Session:           "172.16.0.4",
		PrevFileName:      prevFileName,
	}
	flags := []string{"Info", "Warning", "Error", "Trace"}
	for i := 0; i < count; i++ {
		spec.Records = append(spec.Records, RecordSpec{
			SessionID:   uint32(0x00AB0000 + i),
			ProcessID:   uint32(1000 + i%3),
			ThreadID:    uint32(i % 5),
			EventTime:   base.Add(time.Duration(i) * time.Second),
			LogFlag:     flags[i%len(flags)],
			Component:   "ScriptRuntime",
			Message:     "message " + time.Duration(i).String(),
			ProcessName: "aaEngine",
		})
	}
	return spec
}

// EncodeUTF16 encodes s as null-terminated UTF-16LE
func EncodeUTF16(s string) []byte {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return append(encoded, 0, 0)
}

// FileTime converts t to 100 ns ticks since 1601-01-01 UTC
func FileTime(t time.Time) uint64 {
	return uint64(t.UnixNano()/100 + fileTimeUnixEpochTicks)
}

func putFileTime(buf []byte, t time.Time) {
	ticks := FileTime(t)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(ticks))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(ticks>>32))
}

// ReversedID returns the on-disk bytes of an identifier stored byte-reversed
func ReversedID(id uint32) []byte {
	return []byte{byte(id), byte(id >> 8), byte(id >> 16), byte(id >> 24)}
}

// BinaryRecord encodes one record located at fileOffset
func BinaryRecord(record RecordSpec, prevOffset uint32) []byte {
	var strings []byte
	for _, s := range []string{record.LogFlag, record.Component, record.Message, record.ProcessName} {
		strings = append(strings, EncodeUTF16(s)...)
	}

	size := recordFixedSize + len(strings)
	if int(record.Length) > size {
		size = int(record.Length)
	}

	buf := make([]byte, size)
	copy(buf[0:4], "aaLR")
	if !record.CorruptLength {
		binary.LittleEndian.PutUint32(buf[4:8], uint32(size))
	}
	binary.LittleEndian.PutUint32(buf[8:12], prevOffset)
	copy(buf[12:16], ReversedID(record.SessionID))
	binary.LittleEndian.PutUint32(buf[16:20], record.ProcessID)
	binary.LittleEndian.PutUint32(buf[20:24], record.ThreadID)
	putFileTime(buf[24:32], record.EventTime)
	copy(buf[recordFixedSize:], strings)

	return buf
}

// BinaryHeader encodes a header for the given record offsets
func BinaryHeader(spec FileSpec, headerLength uint32, firstOffset, lastOffset uint32) []byte {
	buf := make([]byte, headerLength)
	copy(buf[0:8], "aaLogHdr")
	binary.LittleEndian.PutUint32(buf[8:12], headerLength)

	count := uint32(len(spec.Records))
	if spec.MsgCount != nil {
		count = *spec.MsgCount
	}
	binary.LittleEndian.PutUint64(buf[20:28], spec.MsgStartingNumber)
	binary.LittleEndian.PutUint32(buf[28:32], count)
	putFileTime(buf[32:40], spec.StartTime)
	putFileTime(buf[40:48], spec.EndTime)
	if !spec.OmitOffsets {
		binary.LittleEndian.PutUint32(buf[48:52], firstOffset)
		binary.LittleEndian.PutUint32(buf[52:56], lastOffset)
	}

	pos := headerFixedSize
	for _, s := range []string{spec.ComputerName, spec.Session, spec.PrevFileName} {
		pos += copy(buf[pos:], EncodeUTF16(s))
	}
	return buf
}

// BinaryLogFile encodes a complete file and returns it with its record offsets
func BinaryLogFile(spec FileSpec) ([]byte, []uint32) {
	headerLength := uint32(headerFixedSize)
	for _, s := range []string{spec.ComputerName, spec.Session, spec.PrevFileName} {
		headerLength += uint32(len(EncodeUTF16(s)))
	}
	if spec.HeaderLength > headerLength {
		headerLength = spec.HeaderLength
	}

	var body []byte
	offsets := make([]uint32, 0, len(spec.Records))
	prev := uint32(0)
	for _, record := range spec.Records {
		offset := headerLength + uint32(len(body))
		body = append(body, BinaryRecord(record, prev)...)
		offsets = append(offsets, offset)
		prev = offset
	}

	var first, last uint32
	if len(offsets) > 0 {
		first, last = offsets[0], offsets[len(offsets)-1]
	}

	return append(BinaryHeader(spec, headerLength, first, last), body...), offsets
}
