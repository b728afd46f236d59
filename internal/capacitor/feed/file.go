package feed

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"capacitor/internal/capacitor/domain"
	"capacitor/pkg/platform/sentinel"
)

// MaxLineSize bounds one encoded block. Longer lines are discarded and
// reported as invalid input.
const MaxLineSize = 16 << 20

// File reads newline-delimited blocks from a reader. Blank lines are skipped.
type File struct {
	reader *bufio.Reader
	closer io.Closer
	limit  int
	line   int
}

// OpenFile opens path as a block feed.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed file: %w", err)
	}
	src := NewReader(f)
	src.closer = f
	return src, nil
}

// NewReader reads blocks from r.
func NewReader(r io.Reader) *File {
	return &File{reader: bufio.NewReaderSize(r, 64*1024), limit: MaxLineSize}
}

func (f *File) Next(ctx context.Context) (*domain.Block, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := f.readLine()
		if errors.Is(err, io.EOF) {
			return nil, sentinel.ErrEndOfFeed
		}
		if err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		block, err := DecodeBlock(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", f.line, err)
		}
		return block, nil
	}
}

// readLine returns the next line without its terminator. A line longer than
// the limit is consumed in full and reported as invalid input, leaving the
// reader positioned at the following line.
func (f *File) readLine() ([]byte, error) {
	var (
		line      []byte
		oversized bool
		read      int
	)
	for {
		chunk, err := f.reader.ReadSlice('\n')
		read += len(chunk)
		if !oversized {
			if len(line)+len(chunk) > f.limit+1 {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if read == 0 {
				return nil, io.EOF
			}
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read feed line %d: %w", f.line+1, err)
		}
		break
	}
	f.line++
	if oversized {
		return nil, fmt.Errorf("line %d exceeds %d bytes: %w", f.line, f.limit, sentinel.ErrInvalidInput)
	}
	return bytes.TrimSuffix(line, []byte("\n")), nil
}

func (f *File) Ack(context.Context) error {
	return nil
}

func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}
