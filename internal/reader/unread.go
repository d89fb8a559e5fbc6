package reader

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yamaru/aalog-reader/internal/config"
	"github.com/yamaru/aalog-reader/internal/types"
)

// DefaultMaxUnread is the record limit used when maxCount is not positive
const DefaultMaxUnread = config.DefaultMaxUnread

// GetUnreadRecords returns the records written after the stored bookmark,
// newest first. A missing or unreadable bookmark means every record is unread.
func (r *Reader) GetUnreadRecords(maxCount int) ([]*types.LogRecord, error) {
	if r.headPath == "" {
		return nil, errors.WithStack(types.ErrFileNotOpen)
	}

	var lastRead uint64
	record, err := r.bookmarkStore().Load()
	switch {
	case err != nil:
		r.logger.Warn("Ignoring unreadable bookmark", zap.Error(err))
	case record != nil:
		lastRead = record.MessageNumber
	}

	return r.GetUnreadRecordsSince(lastRead, maxCount)
}

// GetUnreadRecordsSince returns up to maxCount records numbered above
// lastRead, newest first, walking backward from the last record of the head
// file across the previous file chain.
//
// When any record is returned the bookmark is moved to the last record of
// the head file, even if maxCount cut the walk short. If saving the bookmark
// fails the records are returned together with the error.
func (r *Reader) GetUnreadRecordsSince(lastRead uint64, maxCount int) ([]*types.LogRecord, error) {
	if maxCount <= 0 {
		maxCount = DefaultMaxUnread
	}

	if err := r.returnToHead(); err != nil {
		return nil, err
	}

	// The log producer may have appended since the header was decoded
	header, err := r.ReadHeader(true)
	if err != nil {
		return nil, err
	}

	records := make([]*types.LogRecord, 0)
	if header.MsgLastNumber() <= lastRead {
		return records, nil
	}

	record, err := r.GetLastRecord()
	if err != nil {
		return nil, err
	}
	if !record.Status.OK() {
		r.logger.Debug("No last record available", zap.String("status", record.Status.Message))
		return records, nil
	}
	records = append(records, record)

	for len(records) < maxCount {
		record, err = r.GetPrevRecord()
		if err != nil {
			return nil, err
		}
		if !record.Status.OK() || record.MessageNumber <= lastRead {
			break
		}
		records = append(records, record)
	}

	r.logger.Debug("Unread records fetched",
		zap.Uint64("lastRead", lastRead),
		zap.Int("count", len(records)),
		zap.Uint64("newest", records[0].MessageNumber),
		zap.Uint64("oldest", records[len(records)-1].MessageNumber))

	newest, err := r.refetchLastRecord(header)
	if err != nil {
		return records, err
	}
	if err := r.bookmarkStore().Save(newest); err != nil {
		return records, errors.Wrap(err, "saving bookmark")
	}
	return records, nil
}

// ReadBookmark returns the stored bookmark, or nil if none exists
func (r *Reader) ReadBookmark() (*types.LogRecord, error) {
	if r.headPath == "" && r.store == nil {
		return nil, errors.WithStack(types.ErrFileNotOpen)
	}
	return r.bookmarkStore().Load()
}

// WriteBookmark stores the last record of the open file as the bookmark
func (r *Reader) WriteBookmark() error {
	record, err := r.GetLastRecord()
	if err != nil {
		return err
	}
	if !record.Status.OK() {
		return errors.Wrap(record.Status.Err(), "no record to bookmark")
	}
	return r.bookmarkStore().Save(record)
}

// returnToHead reopens the head file if a backward walk rotated away from
// it or the stream was closed at the end of the log.
func (r *Reader) returnToHead() error {
	if r.headPath == "" {
		return errors.WithStack(types.ErrFileNotOpen)
	}
	if r.file != nil && r.path == r.headPath {
		return nil
	}
	if err := r.closeFile(); err != nil {
		return err
	}
	return r.openFile(r.headPath)
}

// refetchLastRecord reads the head file's last record as described by the
// header decoded at the start of the scan and leaves the cursor on it.
func (r *Reader) refetchLastRecord(header *types.FileHeader) (*types.LogRecord, error) {
	if err := r.returnToHead(); err != nil {
		return nil, err
	}
	record, err := r.readRecordAt(header.OffsetLastRecord, header.MsgLastNumber())
	if err != nil {
		return nil, err
	}
	if !record.Status.OK() {
		return nil, errors.Wrap(record.Status.Err(), "re-reading last record")
	}
	return record, nil
}
