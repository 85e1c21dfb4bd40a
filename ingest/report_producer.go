package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"ridehub-api/models"
)

// ReportProducer publishes accepted location reports to Kafka for the
// audit/replay trail. The hot path never depends on it: publishing is
// best-effort and the caller only logs failures.
type ReportProducer struct {
	writer *kafka.Writer
}

func NewReportProducer(brokers []string, topic string) *ReportProducer {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &ReportProducer{writer: w}
}

func (p *ReportProducer) PublishReport(u models.RideLocationUpdate) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(u.RideID), Value: b})
}

func (p *ReportProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
