package reader

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yamaru/aalog-reader/internal/bookmark"
	"github.com/yamaru/aalog-reader/internal/config"
	"github.com/yamaru/aalog-reader/internal/locator"
	"github.com/yamaru/aalog-reader/internal/parser"
	"github.com/yamaru/aalog-reader/internal/types"
)

var _ LogReader = (*Reader)(nil)

// Reader navigates one chain of .aalog files. It owns at most one open file
// at a time and is not safe for concurrent use.
type Reader struct {
	logger       *zap.Logger
	parser       parser.LogParser
	host         HostResolver
	store        bookmark.Store
	bookmarkFile string
	extension    string
	defaultDir   func() string

	file   *os.File
	binary BinaryReader
	// path is the file being navigated, headPath the file passed to Open
	path     string
	headPath string

	header *types.FileHeader
	cursor *types.LogRecord
}

// Option configures a Reader
type Option func(*Reader)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// WithHostResolver sets the source of the host name stamped on headers and records
func WithHostResolver(host HostResolver) Option {
	return func(r *Reader) {
		r.host = host
	}
}

// WithBookmarkStore sets the bookmark store. By default a side file next
// to the opened log file is used.
func WithBookmarkStore(store bookmark.Store) Option {
	return func(r *Reader) {
		r.store = store
	}
}

// WithBookmarkFile sets the name of the default bookmark side file
func WithBookmarkFile(name string) Option {
	return func(r *Reader) {
		r.bookmarkFile = name
	}
}

// WithFileExtension sets the extension OpenCurrent looks for
func WithFileExtension(ext string) Option {
	return func(r *Reader) {
		r.extension = ext
	}
}

// WithDefaultDirectory sets how OpenCurrent finds a directory when none is given
func WithDefaultDirectory(dir func() string) Option {
	return func(r *Reader) {
		r.defaultDir = dir
	}
}

// WithParser replaces the buffer parser
func WithParser(p parser.LogParser) Option {
	return func(r *Reader) {
		r.parser = p
	}
}

// NewLogReader creates a new Reader instance
func NewLogReader(opts ...Option) *Reader {
	r := &Reader{
		logger:       zap.NewNop(),
		parser:       parser.NewLogParser(),
		host:         locator.NewSystemHost(),
		bookmarkFile: bookmark.DefaultFileName,
		extension:    locator.DefaultExtension,
		defaultDir:   config.DefaultLogDirectory,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("reader", uuid.NewString()))
	return r
}

// Open opens a log file and decodes its header. The file becomes the head
// of the chain: unread-record scans always start from it.
func (r *Reader) Open(filename string) error {
	if err := r.closeFile(); err != nil {
		return err
	}
	r.headPath = filename
	return r.openFile(filename)
}

// OpenCurrent opens the most recently modified log file in dir. An empty
// dir means the configured default log directory.
func (r *Reader) OpenCurrent(dir string) error {
	if dir == "" {
		dir = r.defaultDir()
	}
	filename, err := locator.LatestFile(dir, r.extension)
	if err != nil {
		return err
	}
	return r.Open(filename)
}

// CurrentFile returns the path of the file being navigated
func (r *Reader) CurrentFile() string {
	return r.path
}

// Header returns the last decoded header, or nil before the first open
func (r *Reader) Header() *types.FileHeader {
	return r.header
}

// Cursor returns the last record read successfully, or nil
func (r *Reader) Cursor() *types.LogRecord {
	return r.cursor
}

// IsOpen returns true if a file is open
func (r *Reader) IsOpen() bool {
	return r.file != nil
}

// Close closes the open file
func (r *Reader) Close() error {
	return r.closeFile()
}

func (r *Reader) openFile(filename string) error {
	if filename == "" {
		return errors.New("attempted to open log file with blank path")
	}

	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "opening log file %s", filename)
	}

	r.file = file
	r.binary = NewBinaryReader(file)
	r.path = filename
	r.header = nil
	r.cursor = nil
	r.logger.Info("Opened log file", zap.String("file", filename))

	_, err = r.ReadHeader(true)
	return err
}

func (r *Reader) closeFile() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.binary = nil
	r.logger.Info("Closed log file", zap.String("file", r.path))
	if err != nil {
		return errors.Wrapf(err, "closing log file %s", r.path)
	}
	return nil
}

// closeOnError closes the file after a decode failure and returns err
func (r *Reader) closeOnError(err error) error {
	r.logger.Error("Closing log file after decode failure", zap.String("file", r.path), zap.Error(err))
	if closeErr := r.closeFile(); closeErr != nil {
		r.logger.Warn("Failed to close log file", zap.Error(closeErr))
	}
	return err
}

// ReadHeader returns the header of the open file. When force is set, or no
// header has been decoded yet, the header is decoded from the file again.
// The previous header is replaced only after a successful decode.
func (r *Reader) ReadHeader(force bool) (*types.FileHeader, error) {
	if !force && r.header != nil {
		return r.header, nil
	}
	if r.file == nil {
		return nil, errors.WithStack(types.ErrFileNotOpen)
	}

	prefix, err := r.binary.ReadSegment(0, parser.HeaderPrefixSize)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = errors.Wrapf(types.ErrCorruptHeader, "%s: header prefix is %d bytes", r.path, len(prefix))
		}
		return nil, r.closeOnError(err)
	}

	length, err := r.parser.HeaderLength(prefix)
	if err != nil {
		return nil, r.closeOnError(errors.Wrap(err, r.path))
	}

	data, err := r.binary.ReadSegment(0, int(length))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = errors.Wrapf(types.ErrBufferTooShort, "%s: header is %d bytes, expected %d", r.path, len(data), length)
		}
		return nil, r.closeOnError(err)
	}
	r.logger.Debug("Header bytes", zap.Binary("data", data))

	header, err := r.parser.ParseHeader(data)
	if err != nil {
		return nil, r.closeOnError(errors.Wrap(err, r.path))
	}
	header.HostFQDN = r.host.FQDN()
	header.Status = types.Status{Kind: types.StatusOK}

	r.header = header
	r.logger.Debug("Header decoded",
		zap.Uint64("msgStartingNumber", header.MsgStartingNumber),
		zap.Uint32("msgCount", header.MsgCount),
		zap.Uint32("offsetFirstRecord", header.OffsetFirstRecord),
		zap.Uint32("offsetLastRecord", header.OffsetLastRecord),
		zap.String("prevFileName", header.PrevFileName))
	return header, nil
}

// readRecordAt decodes the record at offset and makes it the cursor.
// Running off the end of the file closes it and yields a failure-status
// record rather than an error.
func (r *Reader) readRecordAt(offset uint32, messageNumber uint64) (*types.LogRecord, error) {
	if r.file == nil || r.header == nil {
		return nil, errors.WithStack(types.ErrFileNotOpen)
	}

	prefix, err := r.binary.ReadSegment(int64(offset), parser.RecordPrefixSize)
	switch {
	case errors.Is(err, io.EOF):
		r.logger.Debug("Read past end of log file", zap.Uint32("offset", offset))
		if closeErr := r.closeFile(); closeErr != nil {
			r.logger.Warn("Failed to close log file", zap.Error(closeErr))
		}
		return types.FailedRecord(types.StatusEndOfLog, types.MessageEndOfLog), nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, r.closeOnError(errors.Wrapf(types.ErrBufferTooShort,
			"%s: record prefix at %d is %d bytes", r.path, offset, len(prefix)))
	case err != nil:
		return nil, err
	}

	length, err := r.parser.RecordLength(prefix)
	if err != nil {
		return nil, r.closeOnError(errors.Wrapf(err, "%s: record at %d", r.path, offset))
	}

	data, err := r.binary.ReadSegment(int64(offset), int(length))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = errors.Wrapf(types.ErrBufferTooShort, "%s: record at %d is %d bytes, expected %d",
				r.path, offset, len(data), length)
		}
		return nil, r.closeOnError(err)
	}

	record, err := r.parser.ParseRecord(data, offset)
	if err != nil {
		return nil, r.closeOnError(errors.Wrapf(err, "%s: record at %d", r.path, offset))
	}
	record.MessageNumber = messageNumber
	record.HostFQDN = r.header.HostFQDN
	record.Status = types.Status{Kind: types.StatusOK}

	r.cursor = record
	r.logger.Debug("Record decoded",
		zap.Uint64("messageNumber", messageNumber),
		zap.Uint32("offset", offset),
		zap.Int64("end", r.binary.Position()))
	return record, nil
}

// bookmarkStore returns the configured store or the side file next to the head file
func (r *Reader) bookmarkStore() bookmark.Store {
	if r.store != nil {
		return r.store
	}
	return bookmark.NewDirectoryStore(filepath.Dir(r.headPath), r.bookmarkFile, r.logger)
}
