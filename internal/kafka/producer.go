// Package kafka publishes ingestion gateway records to the three
// configured topics: raw inbound HL7 payloads, FHIR transaction Bundles,
// and parse exceptions.
package kafka

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// Producer wraps one kafka-go Writer per configured topic. Writers are
// safe for concurrent use by multiple connection handlers.
type Producer struct {
	requestIn      *kafkago.Writer
	fhirTransactions *kafkago.Writer
	exceptions     *kafkago.Writer
	log            zerolog.Logger
}

// Config names the three topics and the broker list used to construct a
// Producer, matching spec §6's configuration keys.
type Config struct {
	BootstrapServers          []string
	RequestInTopic            string
	InboundFHIRTransactionsTopic string
	ExceptionsTopic           string
}

// NewProducer builds a Producer with one fire-and-forget Writer per
// topic. Writers use async mode so Publish does not block on broker
// acknowledgment, matching spec §5's "fire-and-forget from the handler's
// point of view" concurrency rule.
func NewProducer(cfg Config, log zerolog.Logger) *Producer {
	newWriter := func(topic string) *kafkago.Writer {
		return &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.BootstrapServers...),
			Topic:        topic,
			Balancer:     &kafkago.LeastBytes{},
			Async:        true,
			BatchTimeout: 10 * time.Millisecond,
			Completion: func(messages []kafkago.Message, err error) {
				if err != nil {
					log.Error().Err(err).Str("topic", topic).Int("count", len(messages)).Msg("kafka publish failed")
				}
			},
		}
	}
	return &Producer{
		requestIn:        newWriter(cfg.RequestInTopic),
		fhirTransactions: newWriter(cfg.InboundFHIRTransactionsTopic),
		exceptions:       newWriter(cfg.ExceptionsTopic),
		log:              log,
	}
}

// PublishRequestIn publishes the raw inbound HL7 payload keyed by
// bundleId, per spec §6.
func (p *Producer) PublishRequestIn(ctx context.Context, key, value string) error {
	return publish(ctx, p.requestIn, key, value, p.log)
}

// PublishFHIRTransaction publishes the FHIR Bundle JSON keyed by MSH-10,
// per spec §6.
func (p *Producer) PublishFHIRTransaction(ctx context.Context, key, value string) error {
	return publish(ctx, p.fhirTransactions, key, value, p.log)
}

// PublishException publishes a failure record to the exceptions topic.
func (p *Producer) PublishException(ctx context.Context, key, value string) error {
	return publish(ctx, p.exceptions, key, value, p.log)
}

func publish(ctx context.Context, w *kafkago.Writer, key, value string, log zerolog.Logger) error {
	err := w.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(key),
		Value: []byte(value),
		Time:  time.Now(),
	})
	if err != nil {
		log.Error().Err(err).Str("topic", w.Topic).Str("key", key).Msg("kafka write failed")
		return err
	}
	return nil
}

// Close flushes and closes every underlying writer.
func (p *Producer) Close() error {
	var firstErr error
	for _, w := range []*kafkago.Writer{p.requestIn, p.fhirTransactions, p.exceptions} {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
