package merge

import (
	"context"
	"errors"
	"io"

	"ticksession/internal/dto"
	"ticksession/utils/async"
)

var errPrefetchStopped = errors.New("prefetch stopped")

type prefetched struct {
	data dto.Data
	err  error
}

// prefetcher reads a source on its own goroutine into a bounded channel. The channel is FIFO,
// so the order of a source's records is never changed.
type prefetcher struct {
	src  Source
	ch   chan prefetched
	done chan struct{}
}

func newPrefetcher(ctx context.Context, src Source, size int) *prefetcher {
	p := &prefetcher{
		src:  src,
		ch:   make(chan prefetched, size),
		done: make(chan struct{}),
	}
	async.GoWithRecover("prefetch:"+src.Name(), func() { p.fill(ctx) }, func(err error) {
		p.finish(ctx, prefetched{err: err})
	})
	return p
}

func (p *prefetcher) fill(ctx context.Context) {
	for {
		d, err := p.src.Next(ctx)
		if err != nil {
			p.finish(ctx, prefetched{err: err})
			return
		}
		select {
		case p.ch <- prefetched{data: d}:
		case <-ctx.Done():
			p.finish(ctx, prefetched{err: ctx.Err()})
			return
		}
	}
}

// finish delivers the terminal item (io.EOF or an error) and closes the channel.
func (p *prefetcher) finish(ctx context.Context, item prefetched) {
	select {
	case p.ch <- item:
	case <-ctx.Done():
	}
	close(p.ch)
	close(p.done)
}

func (p *prefetcher) Name() string {
	return p.src.Name()
}

func (p *prefetcher) Next(ctx context.Context) (dto.Data, error) {
	select {
	case item, ok := <-p.ch:
		if !ok {
			return dto.Data{}, errPrefetchStopped
		}
		return item.data, item.err
	case <-ctx.Done():
		return dto.Data{}, ctx.Err()
	}
}

// Close waits for the fill goroutine to exit and then closes the wrapped source. The read
// context must already be cancelled, otherwise Close blocks until the source is drained.
func (p *prefetcher) Close() error {
	<-p.done
	if c, ok := p.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
