package bookmark

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yamaru/aalog-reader/internal/codec"
	"github.com/yamaru/aalog-reader/internal/types"
)

// DefaultFileName is the side file kept next to the log files
const DefaultFileName = "aaLogReaderCache.txt"

// FileStore keeps the bookmark as a JSON record in a side file
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a store backed by the file at path
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		path:   path,
		logger: logger.With(zap.String("bookmark", path)),
	}
}

// NewDirectoryStore creates a store for the log directory dir
func NewDirectoryStore(dir, fileName string, logger *zap.Logger) *FileStore {
	if fileName == "" {
		fileName = DefaultFileName
	}
	return NewFileStore(filepath.Join(dir, fileName), logger)
}

// Path returns the side file path
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the bookmark. A missing file is not an error.
func (s *FileStore) Load() (*types.LogRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("No bookmark stored")
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading bookmark %s", s.path)
	}

	record, err := codec.UnmarshalRecord(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding bookmark %s", s.path)
	}
	s.logger.Debug("Bookmark loaded", zap.Uint64("messageNumber", record.MessageNumber))
	return record, nil
}

// Save writes the bookmark through a temporary file so readers never see a
// partially written record.
func (s *FileStore) Save(record *types.LogRecord) error {
	if record == nil {
		return errors.New("nil bookmark record")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return errors.Wrap(err, "creating bookmark temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(codec.MarshalRecord(record)); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing bookmark")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing bookmark temp file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrapf(err, "replacing bookmark %s", s.path)
	}

	s.logger.Debug("Bookmark saved", zap.Uint64("messageNumber", record.MessageNumber))
	return nil
}
