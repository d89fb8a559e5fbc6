// Package codec encodes log records as JSON objects.
//
// Field names follow the layout consumers of the bookmark side file already
// expect, so a bookmark written by one reader can be read by another.
package codec

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/yamaru/aalog-reader/internal/types"
)

// TimeLayout is the timestamp layout used in encoded records
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// AppendRecord appends the JSON encoding of record to dst
func AppendRecord(dst []byte, record *types.LogRecord) []byte {
	var a fastjson.Arena

	status := a.NewObject()
	if record.Status.OK() {
		status.Set("Status", a.NewTrue())
	} else {
		status.Set("Status", a.NewFalse())
	}
	status.Set("Message", a.NewString(record.Status.Message))

	o := a.NewObject()
	o.Set("MessageNumber", a.NewNumberString(strconv.FormatUint(record.MessageNumber, 10)))
	o.Set("FileOffset", uintValue(&a, record.FileOffset))
	o.Set("RecordLength", uintValue(&a, record.RecordLength))
	o.Set("OffsetToPrevRecord", uintValue(&a, record.OffsetToPrevRecord))
	o.Set("OffsetToNextRecord", uintValue(&a, record.OffsetToNextRecord))
	o.Set("SessionID", uintValue(&a, record.SessionID))
	o.Set("ProcessID", uintValue(&a, record.ProcessID))
	o.Set("ThreadID", uintValue(&a, record.ThreadID))
	if !record.EventTime.IsZero() {
		o.Set("EventDateTime", a.NewString(record.EventTime.Format(TimeLayout)))
	}
	o.Set("LogFlag", a.NewString(record.LogFlag))
	o.Set("Component", a.NewString(record.Component))
	o.Set("Message", a.NewString(record.Message))
	o.Set("ProcessName", a.NewString(record.ProcessName))
	o.Set("HostFQDN", a.NewString(record.HostFQDN))
	o.Set("ReturnCode", status)

	return o.MarshalTo(dst)
}

func uintValue(a *fastjson.Arena, v uint32) *fastjson.Value {
	return a.NewNumberString(strconv.FormatUint(uint64(v), 10))
}

// MarshalRecord returns the JSON encoding of record
func MarshalRecord(record *types.LogRecord) []byte {
	return AppendRecord(nil, record)
}

// UnmarshalRecord decodes a record encoded by AppendRecord.
// Missing fields are left at their zero value.
func UnmarshalRecord(data []byte) (*types.LogRecord, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "parsing record JSON")
	}
	if v.Type() != fastjson.TypeObject {
		return nil, errors.Errorf("record JSON is a %s, expected object", v.Type())
	}

	record := &types.LogRecord{
		FileOffset:         uint32(v.GetUint("FileOffset")),
		RecordLength:       uint32(v.GetUint("RecordLength")),
		OffsetToPrevRecord: uint32(v.GetUint("OffsetToPrevRecord")),
		OffsetToNextRecord: uint32(v.GetUint("OffsetToNextRecord")),
		SessionID:          uint32(v.GetUint("SessionID")),
		ProcessID:          uint32(v.GetUint("ProcessID")),
		ThreadID:           uint32(v.GetUint("ThreadID")),
		LogFlag:            string(v.GetStringBytes("LogFlag")),
		Component:          string(v.GetStringBytes("Component")),
		Message:            string(v.GetStringBytes("Message")),
		ProcessName:        string(v.GetStringBytes("ProcessName")),
		HostFQDN:           string(v.GetStringBytes("HostFQDN")),
	}

	if number := v.Get("MessageNumber"); number != nil {
		if record.MessageNumber, err = number.Uint64(); err != nil {
			return nil, errors.Wrap(err, "message number")
		}
	}

	if raw := v.GetStringBytes("EventDateTime"); len(raw) > 0 {
		eventTime, err := time.Parse(TimeLayout, string(raw))
		if err != nil {
			return nil, errors.Wrap(err, "event time")
		}
		record.EventTime = eventTime.Local()
	}

	if v.Exists("ReturnCode") && !v.GetBool("ReturnCode", "Status") {
		record.Status = types.Status{
			Kind:    types.StatusFailed,
			Message: string(v.GetStringBytes("ReturnCode", "Message")),
		}
	}

	return record, nil
}
