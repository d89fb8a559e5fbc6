package locator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamaru/aalog-reader/internal/types"
)

func touch(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestLatestFile(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 8, 24, 12, 0, 0, 0, time.UTC)

	touch(t, dir, "20240824000.aalog", base)
	newest := touch(t, dir, "20240824001.AALOG", base.Add(2*time.Minute))
	touch(t, dir, "20240824002.aalog", base.Add(time.Minute))
	// Newer, but not a log file
	touch(t, dir, DefaultExtension[1:]+".txt", base.Add(time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.aalog"), 0o755))

	latest, err := LatestFile(dir, DefaultExtension)
	require.NoError(t, err)
	assert.Equal(t, newest, latest)
}

func TestLatestFile_SameModTime(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Date(2024, 8, 24, 12, 0, 0, 0, time.UTC)

	touch(t, dir, "a.aalog", mtime)
	b := touch(t, dir, "b.aalog", mtime)

	latest, err := LatestFile(dir, "")
	require.NoError(t, err)
	assert.Equal(t, b, latest)
}

func TestLatestFile_NoLogFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "notes.txt", time.Now())

	_, err := LatestFile(dir, DefaultExtension)
	assert.True(t, errors.Is(err, types.ErrNoLogFiles), "got %v", err)
}

func TestLatestFile_BadDirectory(t *testing.T) {
	_, err := LatestFile(filepath.Join(t.TempDir(), "missing"), DefaultExtension)
	assert.Error(t, err)

	_, err = LatestFile("", DefaultExtension)
	assert.Error(t, err)
}

func TestLogFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	first := touch(t, dir, "one.aalog", now)
	second := touch(t, dir, "two.aalog", now)
	touch(t, dir, "three.log", now)

	files, err := LogFiles(dir, DefaultExtension)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first, second}, files)
}

func TestStaticHost(t *testing.T) {
	assert.Equal(t, "historian01.plant.local", StaticHost("historian01.plant.local").FQDN())
}

func TestSystemHost(t *testing.T) {
	host := NewSystemHost()
	first := host.FQDN()

	hostname, err := os.Hostname()
	if err == nil {
		assert.Contains(t, strings.ToLower(first), strings.ToLower(hostname))
	}
	assert.Equal(t, first, host.FQDN())
}
