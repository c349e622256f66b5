package ledger

import (
	"context"

	"github.com/wonny/factorflow/backend/internal/contracts"
	"github.com/wonny/factorflow/backend/pkg/kafka"
)

// Publisher is the subset of kafka.Producer the sink needs
type Publisher interface {
	PublishBatch(ctx context.Context, topic string, messages []kafka.Message) error
}

// RecordEvent is the message value of one scored record
type RecordEvent struct {
	RunID     string `json:"run_id"`
	ModelHash string `json:"model_hash"`
	Date      string `json:"date"`
	*contracts.ScoredRecord
}

// KafkaSink streams each published date to a topic, one message per
// record, keyed by symbol so a security's history stays on one partition.
type KafkaSink struct {
	producer Publisher
	topic    string
}

// NewKafkaSink creates a new Kafka sink
func NewKafkaSink(producer Publisher, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

// Name implements contracts.LedgerSink
func (k *KafkaSink) Name() string {
	return "kafka"
}

// PublishDate implements contracts.LedgerSink
func (k *KafkaSink) PublishDate(ctx context.Context, batch *contracts.DateBatch) error {
	date := contracts.FormatDate(batch.Date)

	msgs := make([]kafka.Message, 0, len(batch.Records))
	for _, r := range batch.Records {
		msgs = append(msgs, kafka.Message{
			Key: []byte(r.Symbol),
			Value: RecordEvent{
				RunID:        batch.RunID,
				ModelHash:    batch.ModelHash,
				Date:         date,
				ScoredRecord: r,
			},
		})
	}
	return k.producer.PublishBatch(ctx, k.topic, msgs)
}
