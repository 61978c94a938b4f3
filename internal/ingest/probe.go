package ingest

import (
	"context"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/segmentio/kafka-go"
)

const (
	errMsgNoBrokers   = "No Kafka brokers configured."
	errMsgNoTopic     = "Host event topic is not set."
	errMsgTopicAbsent = "Host event topic is not available on any broker."
)

// TopicProbe treats the host order system as installed when its event topic
// exists and has partitions.
type TopicProbe struct {
	Brokers []string
	Topic   string
	Timeout time.Duration
}

// Probe dials each broker in turn until one reports partitions for Topic.
func (p TopicProbe) Probe(ctx context.Context) error {
	const op errors.Op = "ingest.TopicProbe.Probe"
	if len(p.Brokers) == 0 {
		return errors.New(op).Msg(errMsgNoBrokers)
	}
	if p.Topic == "" {
		return errors.New(op).Msg(errMsgNoTopic)
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var lastErr error
	for _, broker := range p.Brokers {
		n, err := partitions(ctx, broker, p.Topic)
		if err != nil {
			lastErr = err
			continue
		}
		if n > 0 {
			return nil
		}
	}
	if lastErr != nil {
		return errors.New(op).Err(lastErr).Msg(errMsgTopicAbsent)
	}
	return errors.New(op).Msg(errMsgTopicAbsent)
}

func partitions(ctx context.Context, broker, topic string) (int, error) {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	parts, err := conn.ReadPartitions(topic)
	if err != nil {
		return 0, err
	}
	return len(parts), nil
}
