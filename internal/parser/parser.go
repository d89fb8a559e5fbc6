package parser

import (
	"github.com/pkg/errors"

	"github.com/yamaru/aalog-reader/internal/types"
)

// Header layout
const (
	HeaderPrefixSize = 12

	// MaxHeaderLength bounds the allocation made for a header read
	MaxHeaderLength = 1 << 20

	headerLengthOffset      = 8
	headerMsgStartOffset    = 20
	headerMsgCountOffset    = 28
	headerStartTimeOffset   = 32
	headerEndTimeOffset     = 40
	headerFirstRecordOffset = 48
	headerLastRecordOffset  = 52
	headerStringsOffset     = 56
)

// Record layout
const (
	RecordPrefixSize = 8

	// MaxRecordLength bounds the allocation made for a record read
	MaxRecordLength = 16 << 20

	recordLengthOffset    = 4
	recordPrevOffset      = 8
	recordSessionIDOffset = 12
	recordProcessIDOffset = 16
	recordThreadIDOffset  = 20
	recordEventTimeOffset = 24
	recordStringsOffset   = 32
)

// logParser implements LogParser
type logParser struct{}

// NewLogParser creates a new LogParser instance
func NewLogParser() LogParser {
	return logParser{}
}

// HeaderLength decodes the header length from the header prefix
func (logParser) HeaderLength(prefix []byte) (uint32, error) {
	if len(prefix) < HeaderPrefixSize {
		return 0, errors.Wrapf(types.ErrCorruptHeader, "header prefix is %d bytes, expected %d", len(prefix), HeaderPrefixSize)
	}
	length, err := ReadUint32(prefix, headerLengthOffset)
	if err != nil {
		return 0, err
	}
	if length < HeaderPrefixSize || length > MaxHeaderLength {
		return 0, errors.Wrapf(types.ErrCorruptHeader, "invalid header length %d", length)
	}
	return length, nil
}

// ParseHeader parses a complete header buffer
func (p logParser) ParseHeader(data []byte) (*types.FileHeader, error) {
	length, err := p.HeaderLength(data)
	if err != nil {
		return nil, err
	}

	header := &types.FileHeader{HeaderLength: length}

	if header.MsgStartingNumber, err = ReadUint64(data, headerMsgStartOffset); err != nil {
		return nil, errors.Wrap(err, "message starting number")
	}
	if header.MsgCount, err = ReadUint32(data, headerMsgCountOffset); err != nil {
		return nil, errors.Wrap(err, "message count")
	}
	if header.StartTime, err = ReadFileTime(data, headerStartTimeOffset); err != nil {
		return nil, errors.Wrap(err, "start time")
	}
	if header.EndTime, err = ReadFileTime(data, headerEndTimeOffset); err != nil {
		return nil, errors.Wrap(err, "end time")
	}
	if header.OffsetFirstRecord, err = ReadUint32(data, headerFirstRecordOffset); err != nil {
		return nil, errors.Wrap(err, "first record offset")
	}
	if header.OffsetLastRecord, err = ReadUint32(data, headerLastRecordOffset); err != nil {
		return nil, errors.Wrap(err, "last record offset")
	}
	if header.OffsetFirstRecord != 0 && header.OffsetLastRecord != 0 &&
		header.OffsetFirstRecord > header.OffsetLastRecord {
		return nil, errors.Wrapf(types.ErrCorruptHeader, "first record offset %d is past last record offset %d",
			header.OffsetFirstRecord, header.OffsetLastRecord)
	}

	err = readStringSequence(data, headerStringsOffset,
		&header.ComputerName,
		&header.Session,
		&header.PrevFileName)
	if err != nil {
		return nil, errors.Wrap(err, "header strings")
	}

	return header, nil
}

// RecordLength decodes the record length from the record prefix
func (logParser) RecordLength(prefix []byte) (uint32, error) {
	if len(prefix) < RecordPrefixSize {
		return 0, errors.Wrapf(types.ErrBufferTooShort, "record prefix is %d bytes, expected %d", len(prefix), RecordPrefixSize)
	}
	length, err := ReadInt32(prefix, recordLengthOffset)
	if err != nil {
		return 0, err
	}
	if length <= 0 || length > MaxRecordLength {
		return 0, errors.Wrapf(types.ErrCorruptRecord, "invalid record length %d", length)
	}
	return uint32(length), nil
}

// ParseRecord parses a complete record buffer located at fileOffset
func (p logParser) ParseRecord(data []byte, fileOffset uint32) (*types.LogRecord, error) {
	length, err := p.RecordLength(data)
	if err != nil {
		return nil, err
	}
	if uint64(fileOffset)+uint64(length) > 1<<32-1 {
		return nil, errors.Wrapf(types.ErrCorruptRecord, "record at %d with length %d overflows the file offset range", fileOffset, length)
	}

	record := &types.LogRecord{
		FileOffset:         fileOffset,
		RecordLength:       length,
		OffsetToNextRecord: fileOffset + length,
	}

	if record.OffsetToPrevRecord, err = ReadUint32(data, recordPrevOffset); err != nil {
		return nil, errors.Wrap(err, "previous record offset")
	}
	if record.SessionID, err = ReadReversedID(data, recordSessionIDOffset); err != nil {
		return nil, errors.Wrap(err, "session id")
	}
	if record.ProcessID, err = ReadUint32(data, recordProcessIDOffset); err != nil {
		return nil, errors.Wrap(err, "process id")
	}
	if record.ThreadID, err = ReadUint32(data, recordThreadIDOffset); err != nil {
		return nil, errors.Wrap(err, "thread id")
	}
	if record.EventTime, err = ReadFileTime(data, recordEventTimeOffset); err != nil {
		return nil, errors.Wrap(err, "event time")
	}

	err = readStringSequence(data, recordStringsOffset,
		&record.LogFlag,
		&record.Component,
		&record.Message,
		&record.ProcessName)
	if err != nil {
		return nil, errors.Wrap(err, "record strings")
	}

	return record, nil
}
