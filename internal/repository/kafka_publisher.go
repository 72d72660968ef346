package repository

import (
	"context"
	"fmt"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	domrepo "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/repository"
	"github.com/Dvipg/e-commerce-demand-forecasting/pkg/kafka"
)

// KafkaPublisher emits batch events through a Kafka producer. Report and
// anomaly payloads share one topic; the message key carries the scope so
// consumers can partition by series.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

var _ domrepo.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher bound to a topic.
func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

type reportEvent struct {
	Kind   string              `json:"kind"`
	Report *models.BatchReport `json:"report"`
}

type anomalyEvent struct {
	Kind     string                 `json:"kind"`
	SeriesID models.SeriesID        `json:"series_id"`
	Records  []models.AnomalyRecord `json:"records"`
}

// PublishReport emits the final batch report.
func (p *KafkaPublisher) PublishReport(ctx context.Context, report *models.BatchReport) error {
	ev := reportEvent{Kind: "batch_report", Report: report}
	if err := p.producer.Publish(ctx, p.topic, []byte(report.RunID), ev); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	return nil
}

// PublishAnomalies emits flagged observations for one series.
func (p *KafkaPublisher) PublishAnomalies(ctx context.Context, id models.SeriesID, records []models.AnomalyRecord) error {
	if len(records) == 0 {
		return nil
	}
	ev := anomalyEvent{Kind: "anomalies", SeriesID: id, Records: records}
	if err := p.producer.Publish(ctx, p.topic, []byte(id), ev); err != nil {
		return fmt.Errorf("publish anomalies: %w", err)
	}
	return nil
}

// Close closes the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
