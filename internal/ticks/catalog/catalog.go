// Package catalog owns named tick sources and turns them into merged query results.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"

	"ticksession/internal/dto"
	"ticksession/internal/ticks/merge"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrDuplicateName = errors.New("duplicate source name")
	ErrKindMismatch  = errors.New("record kind does not match source kind")
)

// OpenFunc opens a fresh, independently positioned source. It is called once per query result.
type OpenFunc func(ctx context.Context) (merge.Source, error)

type Config struct {
	// PrefetchSize is forwarded to every merge engine built from this catalog.
	PrefetchSize int
	Observer     merge.Observer
}

type entry struct {
	name string
	open OpenFunc
}

// Catalog is a registry of named sources. Registration order is the merge tie-break.
type Catalog struct {
	cfg         Config
	entries     []entry
	names       map[string]struct{}
	kafkaBounds PartitionBounds
}

func New(cfg Config) *Catalog {
	return &Catalog{
		cfg:         cfg,
		names:       make(map[string]struct{}),
		kafkaBounds: ReadPartitionBounds,
	}
}

// Register adds a source under name. open must return a source reporting that same name.
func (c *Catalog) Register(name string, open OpenFunc) error {
	if _, ok := c.names[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	c.names[name] = struct{}{}
	c.entries = append(c.entries, entry{name: name, open: open})
	log.Info().Str("source", name).Int("position", len(c.entries)-1).Msg("source registered")
	return nil
}

// AddRecords registers an in-memory source. The slice must not be modified afterwards.
func (c *Catalog) AddRecords(name string, records []dto.Data) error {
	return c.Register(name, func(context.Context) (merge.Source, error) {
		return merge.NewSliceSource(name, records), nil
	})
}

// AddFile registers a JSON-lines file. A kind of 0 accepts both quotes and trades.
func (c *Catalog) AddFile(name string, kind dto.DataKind, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("add file %q: %w", name, err)
	}
	return c.Register(name, func(context.Context) (merge.Source, error) {
		return OpenFile(name, kind, path)
	})
}

// AddKafka registers a replay of one topic partition.
func (c *Catalog) AddKafka(name string, kind dto.DataKind, cfg KafkaConfig) error {
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("add kafka %q: %w", name, err)
	}
	return c.Register(name, func(ctx context.Context) (merge.Source, error) {
		return OpenKafka(ctx, name, kind, cfg, c.kafkaBounds)
	})
}

func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}
	return names
}

// ToQueryResult opens every source concurrently and registers them with a new merge engine
// in catalog order. Each call yields an independent result.
func (c *Catalog) ToQueryResult(ctx context.Context) (*QueryResult, error) {
	sources := make([]merge.Source, len(c.entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range c.entries {
		g.Go(func() error {
			src, err := e.open(gctx)
			if err != nil {
				return fmt.Errorf("open source %q: %w", e.name, err)
			}
			sources[i] = src
			return nil
		})
	}

	engine := merge.NewEngine(merge.Config{PrefetchSize: c.cfg.PrefetchSize, Observer: c.cfg.Observer})
	err := g.Wait()
	for _, src := range sources {
		if src == nil {
			continue
		}
		if addErr := engine.Add(src); addErr != nil && err == nil {
			err = addErr
		}
	}
	if err != nil {
		_ = engine.Close()
		return nil, err
	}
	return &QueryResult{engine: engine}, nil
}

// QueryResult is a single-pass view over the merged sources.
type QueryResult struct {
	engine *merge.Engine
}

func (q *QueryResult) Next(ctx context.Context) (dto.Data, error) {
	return q.engine.Next(ctx)
}

// Flatten yields every record ascending by ts_init, stopping at the first error.
func (q *QueryResult) Flatten(ctx context.Context) iter.Seq2[dto.Data, error] {
	return q.engine.All(ctx)
}

// Collect drains the result into memory.
func (q *QueryResult) Collect(ctx context.Context) ([]dto.Data, error) {
	var out []dto.Data
	for d, err := range q.Flatten(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (q *QueryResult) Close() error {
	return q.engine.Close()
}
