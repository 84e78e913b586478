package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hamed0406/healthwatch/internal/domain"
)

type KafkaSpec struct {
	Brokers      []string
	Topic        string
	Timeout      time.Duration
	ContentBasic string
}

// Kafka publishes each event as one JSON message keyed by the service uid.
type Kafka struct {
	writer *kafka.Writer
	spec   KafkaSpec
}

func NewKafka(spec KafkaSpec) *Kafka {
	if spec.Timeout <= 0 {
		spec.Timeout = defaultTimeout
	}
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(spec.Brokers...),
			Topic:        spec.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchSize:    1,
			MaxAttempts:  1,
			WriteTimeout: spec.Timeout,
			RequiredAcks: kafka.RequireOne,
		},
		spec: spec,
	}
}

func (k *Kafka) Kind() Kind { return KindKafka }

func (k *Kafka) Deliver(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(eventDocument{Message: Render(k.spec.ContentBasic, ev), Event: ev})
	if err != nil {
		return &DeliveryError{Reason: ReasonPayload, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, k.spec.Timeout)
	defer cancel()
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.UID), Value: payload}); err != nil {
		return classify(err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
