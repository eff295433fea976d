package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"ticksession/internal/dto"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const DefaultBatchSize = 500

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Observer interface {
	Published(n int)
	PublishFailed()
}

type noopObserver struct{}

func (noopObserver) Published(int)  {}
func (noopObserver) PublishFailed() {}

// Publisher writes merged ticks to Kafka, keyed by instrument id so that one instrument stays on
// one partition and keeps its merged order.
type Publisher struct {
	writer    MessageWriter
	batchSize int
	observer  Observer
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.Hash{},
	})
}

func NewPublisher(writer MessageWriter, batchSize int, observer Observer) *Publisher {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Publisher{
		writer:    writer,
		batchSize: batchSize,
		observer:  observer,
	}
}

// Publish drains ticks and returns how many were written. A failed tick sequence is returned
// as-is after whatever was read before it has been flushed.
func (p *Publisher) Publish(ctx context.Context, ticks iter.Seq2[dto.Data, error]) (int, error) {
	log.Info().Int("batch_size", p.batchSize).Msg("publisher started")

	written := 0
	batch := make([]kafka.Message, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.WriteMessages(ctx, batch...); err != nil {
			p.observer.PublishFailed()
			log.Error().Err(err).Int("batch", len(batch)).Msg("failed to write messages to kafka")
			return fmt.Errorf("write %d messages: %w", len(batch), err)
		}
		written += len(batch)
		p.observer.Published(len(batch))
		batch = batch[:0]
		return nil
	}

	for d, err := range ticks {
		if err != nil {
			if flushErr := flush(); flushErr != nil {
				return written, flushErr
			}
			return written, err
		}
		payload, err := json.Marshal(d)
		if err != nil {
			return written, fmt.Errorf("marshal tick: %w", err)
		}
		batch = append(batch, kafka.Message{
			Key:   []byte(d.InstrumentID().String()),
			Value: payload,
		})
		if len(batch) == p.batchSize {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}

	if err := flush(); err != nil {
		return written, err
	}
	log.Info().Int("published", written).Msg("publisher finished")
	return written, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
