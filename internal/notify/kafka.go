package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"

	"fresh-wallet-scout/internal/domain"
)

// walletEvent is the message published for every fresh wallet.
type walletEvent struct {
	ID             string  `json:"id"`
	Wallet         string  `json:"wallet"`
	Chain          string  `json:"chain"`
	Symbol         string  `json:"symbol"`
	InitDepositUSD float64 `json:"initDepositUSD"`
	TxHash         string  `json:"txHash"`
	DetectedAt     string  `json:"detectedAt"`
}

// KafkaNotifier publishes fresh wallets to a Kafka topic.
type KafkaNotifier struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaNotifier creates a producer connected to the given brokers
// (comma separated).
func NewKafkaNotifier(brokers, topic string) (*KafkaNotifier, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           3,
		"retry.backoff.ms":  100,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &KafkaNotifier{producer: producer, topic: topic}, nil
}

var _ Notifier = (*KafkaNotifier)(nil)

func (n *KafkaNotifier) Name() string { return "kafka" }

func (n *KafkaNotifier) Notify(ctx context.Context, wallet domain.FreshWallet, scan ScanContext) error {
	event := walletEvent{
		ID:             uuid.NewString(),
		Wallet:         displayAddress(wallet.Wallet),
		Chain:          wallet.Chain,
		Symbol:         scan.Symbol,
		InitDepositUSD: wallet.InitDepositUSD,
		TxHash:         scan.TxHash,
		DetectedAt:     scan.DetectedAt.UTC().Format(time.RFC3339),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal wallet event: %w", err)
	}

	// Buffered so an abandoned delivery report cannot block the
	// producer callback.
	deliveryChan := make(chan kafka.Event, 1)

	err = n.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &n.topic, Partition: kafka.PartitionAny},
		// Wallet as key keeps one wallet's events on one partition.
		Key:   []byte(event.Wallet),
		Value: value,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("produce wallet event: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryChan:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected kafka event type: %T", e)
		}
		if msg.TopicPartition.Error != nil {
			return fmt.Errorf("deliver wallet event: %w", msg.TopicPartition.Error)
		}
		return nil
	}
}

// Close flushes outstanding messages and releases the producer.
func (n *KafkaNotifier) Close() {
	n.producer.Flush(5000)
	n.producer.Close()
}
