package main

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/yamaru/aalog-reader/internal/codec"
	"github.com/yamaru/aalog-reader/internal/types"
)

// writeRecords prints records to stdout or to --out
func writeRecords(opts options, records []*types.LogRecord) (err error) {
	var out io.Writer = os.Stdout
	if opts.outputFile != "" {
		file, createErr := os.Create(opts.outputFile)
		if createErr != nil {
			return errors.Wrap(createErr, "creating output file")
		}
		defer func() {
			if closeErr := file.Close(); err == nil && closeErr != nil {
				err = errors.Wrap(closeErr, "closing output file")
			}
		}()
		out = file

		if strings.HasSuffix(opts.outputFile, ".zst") {
			enc, encErr := zstd.NewWriter(file)
			if encErr != nil {
				return errors.Wrap(encErr, "creating zstd writer")
			}
			defer func() {
				if closeErr := enc.Close(); err == nil && closeErr != nil {
					err = errors.Wrap(closeErr, "finishing zstd stream")
				}
			}()
			out = enc
		}
	}

	w := bufio.NewWriter(out)
	if err := encodeRecords(w, opts.outputFormat, records); err != nil {
		return err
	}
	return errors.Wrap(w.Flush(), "writing records")
}

func encodeRecords(w io.Writer, format string, records []*types.LogRecord) error {
	var line []byte
	for _, record := range records {
		line = line[:0]
		switch format {
		case "json":
			line = codec.AppendRecord(line, record)
		default:
			line = append(line, record.String()...)
		}
		line = append(line, '\n')
		if _, err := w.Write(line); err != nil {
			return errors.Wrap(err, "writing record")
		}
	}
	return nil
}

// readExport decodes a JSON lines export, decompressing .zst files
func readExport(path string) ([]*types.LogRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening export")
	}
	defer file.Close()

	var in io.Reader = file
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(file)
		if err != nil {
			return nil, errors.Wrap(err, "creating zstd reader")
		}
		defer dec.Close()
		in = dec
	}

	var records []*types.LogRecord
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		record, err := codec.UnmarshalRecord(scanner.Bytes())
		if err != nil {
			return nil, errors.Wrapf(err, "decoding line %d", len(records)+1)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading export")
	}
	return records, nil
}
