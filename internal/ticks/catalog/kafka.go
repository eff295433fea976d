package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ticksession/internal/dto"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

type KafkaConfig struct {
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	Partition int      `yaml:"partition"`
}

func (c KafkaConfig) validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka.brokers is required")
	}
	if c.Topic == "" {
		return errors.New("kafka.topic is required")
	}
	if c.Partition < 0 {
		return errors.New("kafka.partition must be >= 0")
	}
	return nil
}

// MessageReader is the part of *kafka.Reader a KafkaSource uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// NewKafkaReader reads a single partition from its first offset, without a consumer group, so
// every replay sees the whole recorded topic.
func NewKafkaReader(cfg KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		Partition:   cfg.Partition,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1e3,
		MaxBytes:    1e6,
		MaxWait:     500 * time.Millisecond,
	})
}

// PartitionBounds reports the first offset and the high-water mark of a partition.
type PartitionBounds func(ctx context.Context, cfg KafkaConfig) (first, last int64, err error)

// ReadPartitionBounds asks the partition leader for its offsets, trying each broker in turn.
func ReadPartitionBounds(ctx context.Context, cfg KafkaConfig) (int64, int64, error) {
	var errs []error
	for _, broker := range cfg.Brokers {
		conn, err := kafka.DialLeader(ctx, "tcp", broker, cfg.Topic, cfg.Partition)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		first, last, err := conn.ReadOffsets()
		_ = conn.Close()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return first, last, nil
	}
	return 0, 0, fmt.Errorf("read offsets of %s[%d]: %w", cfg.Topic, cfg.Partition, errors.Join(errs...))
}

// OpenKafka starts a replay bounded by the partition's high-water mark at open time. An empty
// partition yields io.EOF straight away instead of waiting for a message.
func OpenKafka(ctx context.Context, name string, kind dto.DataKind, cfg KafkaConfig, bounds PartitionBounds) (*KafkaSource, error) {
	first, last, err := bounds(ctx, cfg)
	if err != nil {
		return nil, err
	}
	src := NewKafkaSource(name, kind, NewKafkaReader(cfg))
	src.end = last
	if last <= first {
		log.Info().Str("source", name).Str("topic", cfg.Topic).Int("partition", cfg.Partition).Msg("kafka partition is empty")
		src.done = true
	}
	return src, nil
}

// KafkaSource replays a recorded partition of JSON ticks. Opened through OpenKafka it stops at
// the high-water mark seen at open; built directly it stops at the high-water mark reported with
// each message.
type KafkaSource struct {
	name   string
	kind   dto.DataKind
	reader MessageReader
	end    int64
	done   bool
}

func NewKafkaSource(name string, kind dto.DataKind, reader MessageReader) *KafkaSource {
	return &KafkaSource{name: name, kind: kind, reader: reader}
}

func (s *KafkaSource) Name() string {
	return s.name
}

func (s *KafkaSource) Next(ctx context.Context) (dto.Data, error) {
	if s.done {
		return dto.Data{}, io.EOF
	}
	m, err := s.reader.ReadMessage(ctx)
	if err != nil {
		return dto.Data{}, err
	}
	end := s.end
	if end == 0 {
		end = m.HighWaterMark
	}
	if end > 0 && m.Offset+1 >= end {
		s.done = true
	}

	d, err := dto.Decode(m.Value)
	if err != nil {
		return dto.Data{}, fmt.Errorf("%s[%d]@%d: %w", m.Topic, m.Partition, m.Offset, err)
	}
	if err := checkKind(s.kind, d); err != nil {
		return dto.Data{}, fmt.Errorf("%s[%d]@%d: %w", m.Topic, m.Partition, m.Offset, err)
	}
	return d, nil
}

func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
