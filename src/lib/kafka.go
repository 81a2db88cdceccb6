package lib

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"ticketr/src/types"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

func GetKafkaProducerConfig(clientId string) kafka.ConfigMap {
	return kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
		"client.id":         clientId,
		"acks":              "all",
	}
}

func KafkaProduceMessage(clientId string, topic string, payload map[string]any) error {
	cfg := GetKafkaProducerConfig(clientId)
	p, err := kafka.NewProducer(&cfg)
	if err != nil {
		log.Printf("Error on producer: %s\n", err.Error())
		return err
	}
	defer p.Close()

	value, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error serializing payload: %s\n", err.Error())
		return err
	}
	err = p.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          value,
	}, nil)
	if err != nil {
		log.Printf("Error producing message to %s: %s\n", topic, err.Error())
		return err
	}
	return nil
}

func KafkaCreateTopics(topics ...string) ([]kafka.TopicResult, error) {
	a, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
	})
	if err != nil {
		log.Printf("Error on AdminClient: %s\n", err.Error())
		return nil, err
	}
	topicsDef := []kafka.TopicSpecification{}
	for _, topic := range topics {
		topicsDef = append(topicsDef, kafka.TopicSpecification{
			Topic:         topic,
			NumPartitions: 10,
		})
	}
	result, err := a.CreateTopics(context.Background(), topicsDef)
	if err != nil {
		log.Printf("Error creating topics: %s\n", err.Error())
		return nil, err
	}
	return result, nil
}

// KafkaTopicConsumer runs a handler for every message on a topic.
type KafkaTopicConsumer struct {
	Topic   string
	GroupID string
	Handler types.Handler
}

func NewKafkaTopicConsumer(topic string, groupId string, handler types.Handler) *KafkaTopicConsumer {
	return &KafkaTopicConsumer{
		Topic:   topic,
		GroupID: groupId,
		Handler: handler,
	}
}

func (c *KafkaTopicConsumer) Listen() {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
		"group.id":          c.GroupID,
		"auto.offset.reset": "smallest",
		"retry.backoff.ms":  100,
	})
	if err != nil {
		log.Printf("Error on consumer for %s: %s\n", c.Topic, err.Error())
		return
	}
	if err := consumer.SubscribeTopics([]string{c.Topic}, nil); err != nil {
		log.Printf("Error subscribing to %s: %s\n", c.Topic, err.Error())
		return
	}
	log.Printf("[%s]: Listening for messages...\n", c.Topic)
	run := true
	for run {
		ev := consumer.Poll(100)
		switch e := ev.(type) {
		case *kafka.Message:
			c.Handler(string(e.Value))
		case kafka.Error:
			log.Printf("[%s] consumer error: %v\n", c.Topic, e)
			run = false
		default:
		}
	}
	consumer.Close()
}

const (
	TopicChangeEvents       = "ticket-events"
	TopicRefundInstructions = "refund-instructions"
)

// PublishChangeEvent fans a mutation out on the broker for external
// subscribers. Core correctness never depends on delivery.
func PublishChangeEvent(change types.ChangeEvent) {
	payload := map[string]any{
		"kind":      change.Kind,
		"event_id":  change.EventID,
		"ticket_id": change.TicketID,
		"at":        change.At,
	}
	if err := KafkaProduceMessage("ChangeEventsProducer", TopicChangeEvents, payload); err != nil {
		log.Printf("Error publishing change event [%s]: %s\n", change.Kind, err.Error())
	}
	PublishChange(change)
}
