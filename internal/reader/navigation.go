package reader

import (
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yamaru/aalog-reader/internal/types"
)

func (r *Reader) currentHeader() (*types.FileHeader, error) {
	if r.header == nil {
		return nil, errors.WithStack(types.ErrFileNotOpen)
	}
	return r.header, nil
}

// GetFirstRecord reads the record at the header's first-record offset. If
// the file has no records the cursor is left unchanged.
func (r *Reader) GetFirstRecord() (*types.LogRecord, error) {
	header, err := r.currentHeader()
	if err != nil {
		return nil, err
	}
	if header.OffsetFirstRecord == 0 {
		return types.FailedRecord(types.StatusNoOffset, types.MessageNoFirstRecord), nil
	}
	return r.readRecordAt(header.OffsetFirstRecord, header.MsgStartingNumber)
}

// GetLastRecord reads the record at the header's last-record offset
func (r *Reader) GetLastRecord() (*types.LogRecord, error) {
	header, err := r.currentHeader()
	if err != nil {
		return nil, err
	}
	if header.OffsetLastRecord == 0 {
		return types.FailedRecord(types.StatusNoOffset, types.MessageNoLastRecord), nil
	}
	return r.readRecordAt(header.OffsetLastRecord, header.MsgLastNumber())
}

// GetNextRecord reads the record following the cursor. Before any record
// has been read it returns the first record.
func (r *Reader) GetNextRecord() (*types.LogRecord, error) {
	if r.cursor == nil {
		return r.GetFirstRecord()
	}

	header, err := r.currentHeader()
	if err != nil {
		return nil, err
	}
	if r.cursor.MessageNumber >= header.MsgLastNumber() {
		return types.FailedRecord(types.StatusEndOfLog, types.MessageEndOfLog), nil
	}
	return r.readRecordAt(r.cursor.OffsetToNextRecord, r.cursor.MessageNumber+1)
}

// GetPrevRecord reads the record preceding the cursor. When the cursor is
// the oldest record of its file and the header names a previous file, that
// file is opened and its last record returned. Before any record has been
// read it returns the last record.
func (r *Reader) GetPrevRecord() (*types.LogRecord, error) {
	if r.cursor == nil {
		return r.GetLastRecord()
	}

	if r.cursor.OffsetToPrevRecord != 0 {
		return r.readRecordAt(r.cursor.OffsetToPrevRecord, r.cursor.MessageNumber-1)
	}

	header, err := r.currentHeader()
	if err != nil {
		return nil, err
	}
	if header.PrevFileName == "" {
		return types.FailedRecord(types.StatusBOL, types.MessageBOL), nil
	}

	if err := r.rotateToPrevious(header.PrevFileName); err != nil {
		return nil, err
	}
	return r.GetLastRecord()
}

// rotateToPrevious closes the open file and opens prevFileName from the same directory
func (r *Reader) rotateToPrevious(prevFileName string) error {
	previous := filepath.Join(filepath.Dir(r.path), prevFileName)
	r.logger.Info("Rotating to previous log file",
		zap.String("from", r.path),
		zap.String("to", previous))

	if err := r.closeFile(); err != nil {
		return err
	}
	if err := r.openFile(previous); err != nil {
		return errors.Wrapf(types.ErrPreviousFileUnavailable, "%s: %v", previous, err)
	}
	return nil
}
