// Package ingest feeds host events from Kafka into the order debug bus.
package ingest

import (
	"context"
	stderrs "errors"
	"io"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/orderdebug"
	"github.com/Station-Manager/orderdebug/internal/config"
	"github.com/Station-Manager/orderdebug/internal/metrics"
	"github.com/Station-Manager/orderdebug/internal/oplog"
	"github.com/segmentio/kafka-go"
)

// SourceKafka labels events that arrived through the consumer.
const SourceKafka = "kafka"

const (
	defaultFetchBackoff = time.Second
	lagInterval         = 5 * time.Second
)

// Publisher delivers decoded events to listeners.
type Publisher interface {
	Publish(ctx context.Context, ev orderdebug.Event) int
}

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
	Close() error
}

// Consumer reads envelopes from one topic and publishes them. Each message is
// committed once handled, including messages that could not be decoded.
type Consumer struct {
	reader  MessageReader
	bus     Publisher
	logger  oplog.Logger
	backoff time.Duration
}

// NewConsumer builds a consumer-group reader from cfg.
func NewConsumer(cfg config.KafkaConfig, bus Publisher, logger oplog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	return NewConsumerWithReader(r, bus, logger)
}

func NewConsumerWithReader(r MessageReader, bus Publisher, logger oplog.Logger) *Consumer {
	if logger == nil {
		logger = oplog.Nop()
	}
	return &Consumer{reader: r, bus: bus, logger: logger, backoff: defaultFetchBackoff}
}

// Run consumes until ctx is done and closes the reader on return.
func (c *Consumer) Run(ctx context.Context) error {
	const op errors.Op = "ingest.Consumer.Run"
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.WarnWith().Err(err).Msg("Failed to close Kafka reader.")
		}
	}()

	go c.reportLag(ctx)
	c.logger.InfoWith().Msg("Host event consumer started.")

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.InfoWith().Msg("Host event consumer stopped.")
				return nil
			}
			if stderrs.Is(err, io.EOF) {
				return errors.New(op).Err(err).Msg("Kafka reader closed.")
			}
			c.logger.WarnWith().Err(err).Msg("Failed to fetch host event.")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}

		c.handleMessage(ctx, m)

		if err = c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.WarnWith().Err(err).Int64("offset", m.Offset).Msg("Failed to commit host event.")
		}
	}
}

// handleMessage decodes and publishes one message. Undecodable messages are
// logged and counted.
func (c *Consumer) handleMessage(ctx context.Context, m kafka.Message) {
	ev, err := orderdebug.DecodeEvent(m.Value)
	if err != nil {
		metrics.EventsRejected.WithLabelValues(SourceKafka).Inc()
		c.logger.WarnWith().Err(err).
			Str("topic", m.Topic).
			Int("partition", m.Partition).
			Int64("offset", m.Offset).
			Msg("Skipping undecodable host event.")
		return
	}
	metrics.EventsReceived.WithLabelValues(string(ev.Kind()), SourceKafka).Inc()
	c.bus.Publish(ctx, ev)
}

func (c *Consumer) reportLag(ctx context.Context) {
	ticker := time.NewTicker(lagInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.ConsumerLag.Set(float64(c.reader.Stats().Lag))
		}
	}
}
