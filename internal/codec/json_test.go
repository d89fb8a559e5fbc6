package codec

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"

	"github.com/yamaru/aalog-reader/internal/types"
)

func sampleRecord() *types.LogRecord {
	return &types.LogRecord{
		FileOffset:         140,
		RecordLength:       70,
		OffsetToPrevRecord: 64,
		OffsetToNextRecord: 210,
		SessionID:          0x01020304,
		ProcessID:          4120,
		ThreadID:           8,
		EventTime:          time.Date(2024, 8, 24, 12, 0, 2, 125*int(time.Millisecond), time.UTC),
		LogFlag:            "Warning",
		Component:          "ScriptRuntime",
		Message:            "Script \"Tick\" exceeded 30s",
		ProcessName:        "aaEngine",
		HostFQDN:           "historian01.plant.local",
		MessageNumber:      101,
	}
}

func TestRecordRoundTrip(t *testing.T) {
	want := sampleRecord()

	got, err := UnmarshalRecord(MarshalRecord(want))
	require.NoError(t, err)

	assert.True(t, want.EventTime.Equal(got.EventTime))
	got.EventTime = want.EventTime
	assert.Equal(t, want, got)
}

func TestMessageNumberPrecision(t *testing.T) {
	for _, n := range []uint64{0, 1 << 53, 1<<53 + 1, math.MaxUint64} {
		record := sampleRecord()
		record.MessageNumber = n

		got, err := UnmarshalRecord(MarshalRecord(record))
		require.NoError(t, err)
		assert.Equal(t, n, got.MessageNumber)
	}
}

func TestAppendRecordFieldNames(t *testing.T) {
	data := AppendRecord([]byte("prefix "), sampleRecord())
	require.Equal(t, "prefix ", string(data[:7]))

	v, err := fastjson.ParseBytes(data[7:])
	require.NoError(t, err)
	assert.Equal(t, uint64(101), v.GetUint64("MessageNumber"))
	assert.Equal(t, "2024-08-24T12:00:02.125Z", mustUTC(t, v.GetStringBytes("EventDateTime")))
	assert.True(t, v.GetBool("ReturnCode", "Status"))
}

func mustUTC(t *testing.T, raw []byte) string {
	parsed, err := time.Parse(TimeLayout, string(raw))
	require.NoError(t, err)
	return parsed.UTC().Format(TimeLayout)
}

func TestUnmarshalRecord_MissingFields(t *testing.T) {
	record, err := UnmarshalRecord([]byte(`{"LogFlag":"Info"}`))
	require.NoError(t, err)
	assert.Zero(t, record.MessageNumber)
	assert.True(t, record.EventTime.IsZero())
	assert.True(t, record.Status.OK())
	assert.Equal(t, "Info", record.LogFlag)
}

func TestUnmarshalRecord_FailedStatus(t *testing.T) {
	failed := types.FailedRecord(types.StatusEndOfLog, types.MessageEndOfLog)

	record, err := UnmarshalRecord(MarshalRecord(failed))
	require.NoError(t, err)
	assert.False(t, record.Status.OK())
	assert.Equal(t, types.MessageEndOfLog, record.Status.Message)
}

func TestUnmarshalRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "MessageNumber=12"},
		{"array", "[1,2,3]"},
		{"negative message number", `{"MessageNumber":-4}`},
		{"string message number", `{"MessageNumber":"12"}`},
		{"bad time", `{"EventDateTime":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalRecord([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
