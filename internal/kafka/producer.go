package kafka

import (
	"context"
	"encoding/json"
	"strconv"

	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/models"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	Writer *kafka.Writer
	Topics config.TopicConfig
}

func NewProducer(brokers []string, topics config.TopicConfig) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer, Topics: topics}
}

// Publish writes a single message to the given topic.
func (p *Producer) Publish(topic, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
}

// PublishEventCreated streams the catalog event creation to Kafka.
func (p *Producer) PublishEventCreated(event models.Event) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Publish(p.Topics.EventCreated, strconv.FormatInt(event.ID, 10), msgBytes)
}

// PublishTicketsPurchased streams one message per committed purchase.
func (p *Producer) PublishTicketsPurchased(tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	msgBytes, err := json.Marshal(tickets)
	if err != nil {
		return err
	}
	key := strconv.FormatInt(tickets[0].EventID, 10) + ":" + strconv.FormatInt(tickets[0].TierID, 10)
	return p.Publish(p.Topics.TicketPurchased, key, msgBytes)
}

// PublishTicketTransferred streams an ownership reassignment.
func (p *Producer) PublishTicketTransferred(ticket models.Ticket, from string) error {
	payload := struct {
		models.Ticket
		From string `json:"from"`
	}{Ticket: ticket, From: from}

	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Publish(p.Topics.TicketTransferred, strconv.FormatInt(ticket.TokenID, 10), msgBytes)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
