package reader

import "github.com/yamaru/aalog-reader/internal/types"

// LogReader defines the interface for navigating .aalog files.
//
// Navigation calls return expected terminal conditions (no offset, end of
// log, beginning of log) as a record with a failure Status and a nil error.
// Corruption and I/O failures are returned as errors.
type LogReader interface {
	// Open opens a log file and decodes its header
	Open(filename string) error

	// OpenCurrent opens the most recently written log file in dir
	OpenCurrent(dir string) error

	// ReadHeader returns the header of the open file, decoding it again when force is set
	ReadHeader(force bool) (*types.FileHeader, error)

	// GetFirstRecord reads the first record of the open file
	GetFirstRecord() (*types.LogRecord, error)

	// GetLastRecord reads the last record of the open file
	GetLastRecord() (*types.LogRecord, error)

	// GetNextRecord reads the record after the cursor
	GetNextRecord() (*types.LogRecord, error)

	// GetPrevRecord reads the record before the cursor, following the
	// previous file chain when the open file is exhausted
	GetPrevRecord() (*types.LogRecord, error)

	// GetUnreadRecords returns records written after the stored bookmark, newest first
	GetUnreadRecords(maxCount int) ([]*types.LogRecord, error)

	// GetUnreadRecordsSince returns records numbered above lastRead, newest first
	GetUnreadRecordsSince(lastRead uint64, maxCount int) ([]*types.LogRecord, error)

	// CurrentFile returns the path of the file being navigated
	CurrentFile() string

	// Close closes the open file
	Close() error
}

// BinaryReader defines the interface for low-level positioned reads
type BinaryReader interface {
	// ReadSegment seeks to offset and reads n bytes. It returns io.EOF if no
	// bytes are available and io.ErrUnexpectedEOF with the partial data if
	// fewer than n bytes are available.
	ReadSegment(offset int64, n int) ([]byte, error)

	// Position returns the offset following the last read
	Position() int64
}

// HostResolver supplies the fully qualified host name stamped on headers and records
type HostResolver interface {
	FQDN() string
}
