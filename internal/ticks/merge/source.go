package merge

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ticksession/internal/dto"
)

// Source is one named stream of ticks, already ascending by ts_init. Next returns io.EOF once
// the stream is finished. Sources implementing io.Closer are closed by Engine.Close.
type Source interface {
	Name() string
	Next(ctx context.Context) (dto.Data, error)
}

var (
	ErrSourceRead      = errors.New("source read failure")
	ErrUnsortedSource  = errors.New("source is not ascending by ts_init")
	ErrDuplicateSource = errors.New("duplicate source name")
	ErrStarted         = errors.New("merge already started")
	ErrClosed          = errors.New("merge closed")
)

// SourceReadError wraps whatever a source returned instead of its next record.
type SourceReadError struct {
	Source string
	Err    error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("read source %q: %v", e.Source, e.Err)
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}

func (e *SourceReadError) Is(target error) bool {
	return target == ErrSourceRead
}

// SliceSource replays an in-memory slice. It does not copy the slice.
type SliceSource struct {
	name    string
	records []dto.Data
	pos     int
}

func NewSliceSource(name string, records []dto.Data) *SliceSource {
	return &SliceSource{name: name, records: records}
}

func (s *SliceSource) Name() string {
	return s.name
}

func (s *SliceSource) Next(ctx context.Context) (dto.Data, error) {
	if err := ctx.Err(); err != nil {
		return dto.Data{}, err
	}
	if s.pos >= len(s.records) {
		return dto.Data{}, io.EOF
	}
	d := s.records[s.pos]
	s.pos++
	return d, nil
}

// Observer is told about every emitted record and every failed source.
type Observer interface {
	RecordEmitted(source string, kind dto.DataKind)
	SourceFailed(source string, err error)
}

type noopObserver struct{}

func (noopObserver) RecordEmitted(string, dto.DataKind) {}
func (noopObserver) SourceFailed(string, error)         {}
