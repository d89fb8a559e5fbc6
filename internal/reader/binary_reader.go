package reader

import (
	"io"

	"github.com/pkg/errors"
)

// binaryReader implements BinaryReader interface
type binaryReader struct {
	reader io.ReadSeeker
	pos    int64
}

// NewBinaryReader creates a new BinaryReader instance
func NewBinaryReader(reader io.ReadSeeker) BinaryReader {
	return &binaryReader{
		reader: reader,
		pos:    0,
	}
}

// ReadSegment reads n bytes starting at offset
func (r *binaryReader) ReadSegment(offset int64, n int) ([]byte, error) {
	if r.reader == nil {
		return nil, errors.New("binary reader has no source")
	}
	if _, err := r.reader.Seek(offset, io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "seeking to %d", offset)
	}
	r.pos = offset

	buf := make([]byte, n)
	bytesRead, err := io.ReadFull(r.reader, buf)
	r.pos += int64(bytesRead)
	switch {
	case err == nil:
		return buf, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if bytesRead == 0 {
			return nil, io.EOF
		}
		return buf[:bytesRead], io.ErrUnexpectedEOF
	default:
		return nil, errors.Wrapf(err, "reading %d bytes at %d", n, offset)
	}
}

// Position returns the current position in the file
func (r *binaryReader) Position() int64 {
	return r.pos
}
