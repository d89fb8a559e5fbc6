package parser

import "github.com/yamaru/aalog-reader/internal/types"

// LogParser decodes header and record buffers read from an .aalog file.
// Reading is two-phase: the caller reads a short prefix, asks the parser for
// the full length, then reads and parses the whole structure.
type LogParser interface {
	// HeaderLength decodes the header length from the first HeaderPrefixSize bytes
	HeaderLength(prefix []byte) (uint32, error)

	// ParseHeader parses a complete header buffer into a FileHeader
	ParseHeader(data []byte) (*types.FileHeader, error)

	// RecordLength decodes the record length from the first RecordPrefixSize bytes
	RecordLength(prefix []byte) (uint32, error)

	// ParseRecord parses a complete record buffer located at fileOffset
	ParseRecord(data []byte, fileOffset uint32) (*types.LogRecord, error)
}
