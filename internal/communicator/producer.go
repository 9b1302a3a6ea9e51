package communicator

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/bilal/wifiwatch/internal/config"
	"github.com/bilal/wifiwatch/internal/model"
)

// messageWriter is the subset of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer is responsible ONLY for Kafka interactions
type KafkaProducer struct {
	agent         string
	iface         string
	samplesWriter messageWriter
	summaryWriter messageWriter
}

// NewKafkaProducer initializes Kafka writers
func NewKafkaProducer(cfg *config.Config) (*KafkaProducer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}

	samplesWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.SamplesTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: int(kafka.RequireOne),
	})

	summaryWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.SummaryTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: int(kafka.RequireAll),
	})

	log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("kafka producer initialized")

	return &KafkaProducer{
		agent:         cfg.Agent.Name,
		iface:         cfg.Agent.Interface,
		samplesWriter: samplesWriter,
		summaryWriter: summaryWriter,
	}, nil
}

// PublishSample publishes one classified sample, keyed by interface so a
// partition keeps chronological order.
func (p *KafkaProducer) PublishSample(ctx context.Context, s model.Sample) error {
	return p.publish(ctx, p.samplesWriter, Telemetry{
		AgentName: p.agent,
		Interface: p.iface,
		Kind:      KindSample,
		Timestamp: s.Timestamp,
		Sample:    &s,
	})
}

// PublishSummary publishes the end-of-session summary.
func (p *KafkaProducer) PublishSummary(ctx context.Context, s model.SessionSummary) error {
	return p.publish(ctx, p.summaryWriter, Telemetry{
		AgentName: p.agent,
		Interface: p.iface,
		Kind:      KindSummary,
		Timestamp: s.End,
		Summary:   &s,
	})
}

func (p *KafkaProducer) publish(ctx context.Context, w messageWriter, t Telemetry) error {
	t.CorrelationID = uuid.New().String()

	data, err := json.Marshal(t)
	if err != nil {
		return err
	}

	return w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(p.agent + "/" + p.iface),
		Value: data,
		Headers: []kafka.Header{
			{Key: "correlation_id", Value: []byte(t.CorrelationID)},
			{Key: "kind", Value: []byte(t.Kind)},
		},
	})
}

// Close shuts down Kafka writers gracefully
func (p *KafkaProducer) Close() error {
	log.Info().Msg("closing kafka producer")

	return errors.Join(p.samplesWriter.Close(), p.summaryWriter.Close())
}
