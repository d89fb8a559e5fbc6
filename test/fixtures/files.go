package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CreateLogFile writes spec into dir/name and returns the path and record offsets
func CreateLogFile(dir, name string, spec FileSpec) (string, []uint32, error) {
	filename := filepath.Join(dir, name)
	data, offsets := BinaryLogFile(spec)
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", nil, fmt.Errorf("failed to write log file: %w", err)
	}
	return filename, offsets, nil
}

// CreateSampleLogFile creates the three-record sample file
func CreateSampleLogFile(dir string) (string, error) {
	filename, _, err := CreateLogFile(dir, "sample.aalog", SampleFileSpec())
	return filename, err
}

// CreateRotatedLogFiles creates a chain of files, oldest first, each with
// perFile records. Every file names its predecessor in prevFileName.
// It returns the paths oldest first.
func CreateRotatedLogFiles(dir string, files, perFile int) ([]string, error) {
	paths := make([]string, 0, files)
	prev := ""
	base := time.Date(2024, 8, 24, 12, 0, 0, 0, time.UTC)
	for i := 0; i < files; i++ {
		name := fmt.Sprintf("%s%03d.aalog", base.Format("20060102"), i)
		spec := GeneratedFileSpec(uint64(1+i*perFile), perFile, prev)
		filename, _, err := CreateLogFile(dir, name, spec)
		if err != nil {
			return nil, err
		}
		// Newer files must sort newer by modification time
		mtime := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(filename, mtime, mtime); err != nil {
			return nil, fmt.Errorf("failed to set file time: %w", err)
		}
		paths = append(paths, filename)
		prev = name
	}
	return paths, nil
}

// CreateCorruptedLogFile creates a file whose second record has a zero length field
func CreateCorruptedLogFile(dir string) (string, error) {
	spec := SampleFileSpec()
	spec.Records[1].CorruptLength = true
	filename, _, err := CreateLogFile(dir, "corrupted.aalog", spec)
	return filename, err
}

// CreateHeaderOnlyLogFile creates a file with a header and no records
func CreateHeaderOnlyLogFile(dir string) (string, error) {
	spec := SampleFileSpec()
	spec.Records = nil
	filename, _, err := CreateLogFile(dir, "header_only.aalog", spec)
	return filename, err
}

// CreateEmptyLogFile creates an empty log file
func CreateEmptyLogFile(dir string) (string, error) {
	filename := filepath.Join(dir, "empty.aalog")
	if err := os.WriteFile(filename, nil, 0o644); err != nil {
		return "", fmt.Errorf("failed to create empty log file: %w", err)
	}
	return filename, nil
}

// CreateTruncatedLogFile creates a file holding only part of the header prefix
func CreateTruncatedLogFile(dir string) (string, error) {
	filename := filepath.Join(dir, "truncated.aalog")
	data, _ := BinaryLogFile(SampleFileSpec())
	if err := os.WriteFile(filename, data[:8], 0o644); err != nil {
		return "", fmt.Errorf("failed to write partial header: %w", err)
	}
	return filename, nil
}

// AppendRecords rewrites the file at filename with extra records appended,
// updating the header as a live log producer would.
func AppendRecords(filename string, spec FileSpec, extra ...RecordSpec) (FileSpec, error) {
	spec.Records = append(append([]RecordSpec(nil), spec.Records...), extra...)
	data, _ := BinaryLogFile(spec)
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return spec, fmt.Errorf("failed to append records: %w", err)
	}
	return spec, nil
}
