package registry

import (
	"context"
	"fmt"

	"ms-boxoffice/internal/errs"
	"ms-boxoffice/internal/models"
)

type DBLayer interface {
	GetTicket(ctx context.Context, tokenID int64) (*models.Ticket, error)
	TicketsOf(ctx context.Context, owner string) ([]models.Ticket, error)
	TicketsOfEvent(ctx context.Context, eventID int64) ([]models.Ticket, error)
	TransferTicket(ctx context.Context, tokenID int64, from, to string) (*models.Ticket, error)
}

type KafkaPublisher interface {
	PublishTicketTransferred(ticket models.Ticket, from string) error
}

// Service is the ticket registry: ownership queries and transfers over
// already-issued tickets. Issuance itself is the allocation engine's job.
type Service struct {
	DB    DBLayer
	Kafka KafkaPublisher
}

func NewService(db DBLayer, kafka KafkaPublisher) *Service {
	return &Service{DB: db, Kafka: kafka}
}

func (s *Service) GetTicket(ctx context.Context, tokenID int64) (*models.Ticket, error) {
	return s.DB.GetTicket(ctx, tokenID)
}

func (s *Service) TicketsOf(ctx context.Context, owner string) ([]models.Ticket, error) {
	return s.DB.TicketsOf(ctx, owner)
}

func (s *Service) TicketsOfEvent(ctx context.Context, eventID int64) ([]models.Ticket, error) {
	return s.DB.TicketsOfEvent(ctx, eventID)
}

// Transfer reassigns a ticket from its current holder. It never re-runs
// allocation: capacity and sold counts are unaffected.
func (s *Service) Transfer(ctx context.Context, tokenID int64, from, to string) (*models.Ticket, error) {
	if from == "" || to == "" {
		return nil, fmt.Errorf("both from and to are required: %w", errs.ErrInvalidInput)
	}
	if from == to {
		return nil, fmt.Errorf("cannot transfer a ticket to its current owner: %w", errs.ErrInvalidInput)
	}

	ticket, err := s.DB.TransferTicket(ctx, tokenID, from, to)
	if err != nil {
		return nil, err
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishTicketTransferred(*ticket, from); err != nil {
			fmt.Printf("Kafka publish error (ticket transferred): %v\n", err)
		}
	}
	return ticket, nil
}
