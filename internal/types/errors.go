package types

import "github.com/pkg/errors"

// Error kinds returned while decoding and navigating log files.
// Call sites wrap these with context; use errors.Is to classify.
var (
	// ErrBufferTooShort is returned when a decode reads past the available bytes
	ErrBufferTooShort = errors.New("buffer too short")

	// ErrCorruptHeader is returned when the header length field is invalid
	ErrCorruptHeader = errors.New("corrupt log header")

	// ErrCorruptRecord is returned when a record length field is invalid
	ErrCorruptRecord = errors.New("corrupt log record")

	// ErrEndOfLog is returned when a read runs past the last record
	ErrEndOfLog = errors.New("end of log")

	// ErrBeginningOfLog is returned when a backward walk reaches the oldest record
	ErrBeginningOfLog = errors.New("beginning of log")

	// ErrPreviousFileUnavailable is returned when rotation cannot open the previous file
	ErrPreviousFileUnavailable = errors.New("previous log file unavailable")

	// ErrNoOffset is returned when the header has no first/last record offset
	ErrNoOffset = errors.New("no record offset")

	// ErrFileNotOpen is returned when an operation needs an open log file
	ErrFileNotOpen = errors.New("log file not open")

	// ErrNoLogFiles is returned when a directory holds no log files
	ErrNoLogFiles = errors.New("no log files found")
)
