package types

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// StatusKind classifies the outcome carried by a decoded entity
type StatusKind uint8

const (
	StatusOK StatusKind = iota
	// StatusFailed is a generic failure, used for entities whose decode raised an error
	StatusFailed
	// StatusNoOffset means the header has no first/last record offset
	StatusNoOffset
	// StatusEndOfLog means a read ran past the last record of the file
	StatusEndOfLog
	// StatusBOL means a backward walk reached the oldest record of the oldest file
	StatusBOL
)

// Messages attached to the expected terminal conditions
const (
	MessageBOL           = "BOL"
	MessageEndOfLog      = "Attempt to read past End-Of-Log-File"
	MessageNoFirstRecord = "Offset to First Record is 0. No record returned."
	MessageNoLastRecord  = "Offset to Last Record is 0. No record returned."
)

// Status is the success flag plus message every decoded entity carries
type Status struct {
	Kind    StatusKind
	Message string
}

// OK reports whether the entity was decoded successfully
func (s Status) OK() bool {
	return s.Kind == StatusOK
}

// Err maps a failure status to its error kind. It returns nil for StatusOK.
func (s Status) Err() error {
	switch s.Kind {
	case StatusOK:
		return nil
	case StatusNoOffset:
		return ErrNoOffset
	case StatusEndOfLog:
		return ErrEndOfLog
	case StatusBOL:
		return ErrBeginningOfLog
	default:
		return errors.New(s.Message)
	}
}

// String returns the string representation of StatusKind
func (k StatusKind) String() string {
	switch k {
	case StatusOK:
		return "OK"
	case StatusFailed:
		return "FAILED"
	case StatusNoOffset:
		return "NO_OFFSET"
	case StatusEndOfLog:
		return "END_OF_LOG"
	case StatusBOL:
		return "BOL"
	default:
		return fmt.Sprintf("STATUS_%d", uint8(k))
	}
}

// FileHeader represents the fixed-region metadata at the start of a log file
type FileHeader struct {
	HeaderLength      uint32
	MsgStartingNumber uint64
	MsgCount          uint32

	StartTime time.Time
	EndTime   time.Time

	// Byte offsets into the file; 0 means no record
	OffsetFirstRecord uint32
	OffsetLastRecord  uint32

	ComputerName string
	Session      string
	PrevFileName string

	// Not part of the file bytes
	HostFQDN string

	Status Status
}

// MsgLastNumber returns the message number of the last record in the file
func (h *FileHeader) MsgLastNumber() uint64 {
	if h.MsgCount == 0 && h.MsgStartingNumber == 0 {
		return 0
	}
	return h.MsgStartingNumber + uint64(h.MsgCount) - 1
}

// LegacyComputerName returns the computer name as older consumers of this
// format reported it: the session string overwrote the decoded name.
func (h *FileHeader) LegacyComputerName() string {
	return h.Session
}

// HasRecords returns true if the header references at least one record
func (h *FileHeader) HasRecords() bool {
	return h.OffsetFirstRecord != 0 && h.OffsetLastRecord != 0
}

// LogRecord represents a single log entry located by byte offset
type LogRecord struct {
	// Offsets and links
	FileOffset         uint32
	RecordLength       uint32
	OffsetToPrevRecord uint32
	OffsetToNextRecord uint32

	// Origin
	SessionID uint32
	ProcessID uint32
	ThreadID  uint32
	EventTime time.Time

	// Payload
	LogFlag     string
	Component   string
	Message     string
	ProcessName string

	// Assigned by the reader
	HostFQDN      string
	MessageNumber uint64

	Status Status
}

// FailedRecord returns a record carrying only a failure status
func FailedRecord(kind StatusKind, message string) *LogRecord {
	return &LogRecord{
		Status: Status{Kind: kind, Message: message},
	}
}

// DisplayTimeLayout is the event time format used in text output
const DisplayTimeLayout = "2006-01-02 15:04:05.000"

// String returns a single-line representation of the record
func (r *LogRecord) String() string {
	if !r.Status.OK() {
		return fmt.Sprintf("<%s: %s>", r.Status.Kind, r.Status.Message)
	}
	return fmt.Sprintf("#%d %s [%s] %s(%d/%d) %s: %s",
		r.MessageNumber,
		r.EventTime.Format(DisplayTimeLayout),
		r.LogFlag,
		r.ProcessName,
		r.ProcessID,
		r.ThreadID,
		r.Component,
		r.Message)
}
