// Package locator finds the log file a reader should start from and
// resolves the identity of the host the logs belong to.
package locator

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/yamaru/aalog-reader/internal/types"
)

// DefaultExtension is the extension of log files written by the logger
const DefaultExtension = ".aalog"

type candidate struct {
	path    string
	modTime time.Time
}

// LogFiles returns the paths of all files in dir with the given extension.
// The extension match is case-insensitive.
func LogFiles(dir, ext string) ([]string, error) {
	candidates, err := listCandidates(dir, ext)
	if err != nil {
		return nil, err
	}
	return lo.Map(candidates, func(c candidate, _ int) string { return c.path }), nil
}

// LatestFile returns the most recently modified log file in dir
func LatestFile(dir, ext string) (string, error) {
	candidates, err := listCandidates(dir, ext)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", errors.Wrapf(types.ErrNoLogFiles, "no *%s files in %s", ext, dir)
	}

	latest := lo.MaxBy(candidates, func(a, b candidate) bool {
		if a.modTime.Equal(b.modTime) {
			return a.path > b.path
		}
		return a.modTime.After(b.modTime)
	})
	return latest.path, nil
}

func listCandidates(dir, ext string) ([]candidate, error) {
	if dir == "" {
		return nil, errors.New("log directory not set")
	}
	if ext == "" {
		ext = DefaultExtension
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading log directory %s", dir)
	}

	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Rotated away between ReadDir and Info
			continue
		}
		candidates = append(candidates, candidate{
			path:    filepath.Join(dir, entry.Name()),
			modTime: info.ModTime(),
		})
	}
	return candidates, nil
}
