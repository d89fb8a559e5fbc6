package bookmark

import "github.com/yamaru/aalog-reader/internal/types"

//go:generate mockgen -source=interfaces.go -destination=mocks/store_mock.go -package=mocks

// Store persists the last record handed to a consumer so a later run can
// fetch only records written after it.
type Store interface {
	// Load returns the stored bookmark, or nil if none has been written yet
	Load() (*types.LogRecord, error)

	// Save replaces the stored bookmark with record
	Save(record *types.LogRecord) error
}
