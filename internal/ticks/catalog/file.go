package catalog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"ticksession/internal/dto"
)

const maxLineSize = 1 << 20

// FileSource reads one JSON-encoded record per line.
type FileSource struct {
	name    string
	kind    dto.DataKind
	path    string
	file    *os.File
	scanner *bufio.Scanner
	line    int
}

func OpenFile(name string, kind dto.DataKind, path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &FileSource{name: name, kind: kind, path: path, file: f, scanner: scanner}, nil
}

func (s *FileSource) Name() string {
	return s.name
}

func (s *FileSource) Next(ctx context.Context) (dto.Data, error) {
	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return dto.Data{}, err
		}
		s.line++
		raw := bytes.TrimSpace(s.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		d, err := dto.Decode(raw)
		if err != nil {
			return dto.Data{}, fmt.Errorf("%s:%d: %w", s.path, s.line, err)
		}
		if err := checkKind(s.kind, d); err != nil {
			return dto.Data{}, fmt.Errorf("%s:%d: %w", s.path, s.line, err)
		}
		return d, nil
	}
	if err := s.scanner.Err(); err != nil {
		return dto.Data{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	return dto.Data{}, io.EOF
}

func (s *FileSource) Close() error {
	return s.file.Close()
}

func checkKind(want dto.DataKind, d dto.Data) error {
	if want != 0 && d.Kind() != want {
		return fmt.Errorf("%w: want %s, got %s", ErrKindMismatch, want, d.Kind())
	}
	return nil
}
