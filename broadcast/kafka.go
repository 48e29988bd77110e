package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaRelay is a Broadcaster for horizontally scaled deployments, where the
// gateway callback may land on a different process than the one holding the
// browser's SSE connection. Published events go through a Kafka topic; every
// process consumes the topic with its own consumer group and fans each event
// into its local hub.
type KafkaRelay struct {
	hub    *Hub
	writer *kafka.Writer
	reader *kafka.Reader
	cancel context.CancelFunc
	done   chan struct{}
}

func NewKafkaRelay(brokers []string, topic string) *KafkaRelay {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		// A fresh group per process so each instance sees every event.
		GroupID:     "paragon-sse-" + uuid.New().String(),
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	ctx, cancel := context.WithCancel(context.Background())
	relay := &KafkaRelay{
		hub:    NewHub(),
		writer: writer,
		reader: reader,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go relay.run(ctx)

	return relay
}

func (r *KafkaRelay) run(ctx context.Context) {
	defer close(r.done)

	for {
		msg, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Failed to read transaction event from Kafka: %v", err)
			time.Sleep(time.Second)
			continue
		}

		var tx Transaction
		if err := json.Unmarshal(msg.Value, &tx); err != nil {
			log.Printf("Discarding malformed transaction event from Kafka: %v", err)
			continue
		}

		r.hub.Publish(tx)
	}
}

func (r *KafkaRelay) Subscribe() *Subscription {
	return r.hub.Subscribe()
}

func (r *KafkaRelay) Unsubscribe(sub *Subscription) {
	r.hub.Unsubscribe(sub)
}

// Publish writes the event to Kafka; local subscribers receive it through the
// consumer loop like everyone else's.
func (r *KafkaRelay) Publish(tx Transaction) {
	value, err := json.Marshal(tx)
	if err != nil {
		log.Printf("Failed to marshal transaction event: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(tx.Phone),
		Value: value,
	}); err != nil {
		log.Printf("Failed to publish transaction event to Kafka: %v", err)
	}
}

func (r *KafkaRelay) Close() error {
	r.cancel()
	<-r.done

	if err := r.writer.Close(); err != nil {
		log.Printf("Failed to close Kafka writer: %v", err)
	}
	if err := r.reader.Close(); err != nil {
		log.Printf("Failed to close Kafka reader: %v", err)
	}

	return r.hub.Close()
}
