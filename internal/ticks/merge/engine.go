// Package merge combines independently ordered tick sources into one sequence ascending by
// ts_init. Ties are broken by registration order, so the same inputs always merge to the same
// output.
package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"ticksession/internal/dto"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"
)

type Config struct {
	// PrefetchSize > 0 reads every source ahead on its own goroutine, buffering at most
	// PrefetchSize records per source.
	PrefetchSize int
	Observer     Observer
}

type state uint8

const (
	stateIdle state = iota
	stateRunning
	stateDone
	stateFailed
	stateClosed
)

type input struct {
	src   Source
	name  string
	count int
	last  dto.UnixNanos
}

// head is the buffered next record of one source.
type head struct {
	data  dto.Data
	index int
}

func headLess(a, b head) bool {
	if ta, tb := a.data.TsInit(), b.data.TsInit(); ta != tb {
		return ta < tb
	}
	return a.index < b.index
}

// Engine is a single-consumer, pull-based k-way merge. It is not safe for concurrent use;
// separate engines share nothing and may run in parallel.
type Engine struct {
	cfg      Config
	inputs   []*input
	names    map[string]struct{}
	heads    *btree.BTreeG[head]
	refill   int
	state    state
	err      error
	stopRead context.CancelFunc
}

func NewEngine(cfg Config) *Engine {
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}
	return &Engine{
		cfg:    cfg,
		names:  make(map[string]struct{}),
		heads:  newHeads(),
		refill: -1,
	}
}

func newHeads() *btree.BTreeG[head] {
	return btree.NewBTreeGOptions(headLess, btree.Options{NoLocks: true})
}

// Add registers a source. Registration order is the tie-break for equal timestamps.
func (e *Engine) Add(src Source) error {
	if e.state != stateIdle {
		return ErrStarted
	}
	name := src.Name()
	if _, ok := e.names[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSource, name)
	}
	e.names[name] = struct{}{}
	e.inputs = append(e.inputs, &input{src: src, name: name})
	return nil
}

// Len is the number of registered sources.
func (e *Engine) Len() int {
	return len(e.inputs)
}

// Next returns the next record in ts_init order, io.EOF when every source is exhausted, or the
// first source failure. After a failure every call returns that same error.
func (e *Engine) Next(ctx context.Context) (dto.Data, error) {
	switch e.state {
	case stateDone:
		return dto.Data{}, io.EOF
	case stateFailed:
		return dto.Data{}, e.err
	case stateClosed:
		return dto.Data{}, ErrClosed
	case stateIdle:
		if err := e.start(ctx); err != nil {
			return dto.Data{}, e.fail(err)
		}
	}

	if len(e.inputs) == 1 {
		d, err := e.pull(ctx, 0)
		if err == io.EOF {
			e.state = stateDone
			return dto.Data{}, io.EOF
		}
		if err != nil {
			return dto.Data{}, e.fail(err)
		}
		e.cfg.Observer.RecordEmitted(e.inputs[0].name, d.Kind())
		return d, nil
	}

	// The source emitted last time is refilled lazily, so a failing read is reported on the
	// pull that needs it and never swallows an already buffered record.
	if e.refill >= 0 {
		idx := e.refill
		e.refill = -1
		if err := e.fillHead(ctx, idx); err != nil {
			return dto.Data{}, e.fail(err)
		}
	}

	h, ok := e.heads.PopMin()
	if !ok {
		e.state = stateDone
		log.Debug().Msg("merge exhausted")
		return dto.Data{}, io.EOF
	}
	e.refill = h.index
	e.cfg.Observer.RecordEmitted(e.inputs[h.index].name, h.data.Kind())
	return h.data, nil
}

// All is a single-pass iterator over the remaining records. It stops after yielding the first
// error.
func (e *Engine) All(ctx context.Context) iter.Seq2[dto.Data, error] {
	return func(yield func(dto.Data, error) bool) {
		for {
			d, err := e.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(dto.Data{}, err)
				return
			}
			if !yield(d, nil) {
				return
			}
		}
	}
}

// Close drops buffered heads, stops prefetching and closes sources that are io.Closers. With
// prefetch on, each source is closed only after its read goroutine has exited.
func (e *Engine) Close() error {
	if e.state == stateClosed {
		return nil
	}
	e.state = stateClosed
	e.heads = newHeads()
	if e.stopRead != nil {
		e.stopRead()
	}

	var errs []error
	for _, in := range e.inputs {
		if c, ok := in.src.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close source %q: %w", in.name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) start(ctx context.Context) error {
	e.state = stateRunning
	log.Info().
		Int("sources", len(e.inputs)).
		Int("prefetch", e.cfg.PrefetchSize).
		Msg("merge started")

	if len(e.inputs) == 0 {
		e.state = stateDone
		return nil
	}

	if e.cfg.PrefetchSize > 0 {
		readCtx, cancel := context.WithCancel(context.Background())
		e.stopRead = cancel
		for _, in := range e.inputs {
			in.src = newPrefetcher(readCtx, in.src, e.cfg.PrefetchSize)
		}
	}

	if len(e.inputs) == 1 {
		return nil
	}
	for i := range e.inputs {
		if err := e.fillHead(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) fillHead(ctx context.Context, idx int) error {
	d, err := e.pull(ctx, idx)
	if err == io.EOF {
		log.Debug().Str("source", e.inputs[idx].name).Int("records", e.inputs[idx].count).Msg("source exhausted")
		return nil
	}
	if err != nil {
		return err
	}
	e.heads.Set(head{data: d, index: idx})
	return nil
}

// pull reads one record from a source and checks it does not go back in time.
func (e *Engine) pull(ctx context.Context, idx int) (dto.Data, error) {
	in := e.inputs[idx]
	d, err := in.src.Next(ctx)
	if err == io.EOF {
		return dto.Data{}, io.EOF
	}
	if err != nil {
		return dto.Data{}, &SourceReadError{Source: in.name, Err: err}
	}
	ts := d.TsInit()
	if in.count > 0 && ts < in.last {
		return dto.Data{}, &SourceReadError{
			Source: in.name,
			Err:    fmt.Errorf("%w: ts_init %d after %d", ErrUnsortedSource, ts, in.last),
		}
	}
	in.count++
	in.last = ts
	return d, nil
}

func (e *Engine) fail(err error) error {
	e.state = stateFailed
	e.err = err
	e.heads = newHeads()
	if e.stopRead != nil {
		e.stopRead()
	}

	source := ""
	var readErr *SourceReadError
	if errors.As(err, &readErr) {
		source = readErr.Source
	}
	e.cfg.Observer.SourceFailed(source, err)
	log.Error().Err(err).Str("source", source).Msg("merge halted")
	return err
}
