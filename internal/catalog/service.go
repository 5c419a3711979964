package catalog

import (
	"context"
	"fmt"
	"time"

	"ms-boxoffice/internal/errs"
	"ms-boxoffice/internal/models"
)

type DBLayer interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	NextTierID(ctx context.Context, eventID int64) (int64, error)
	CreateTier(ctx context.Context, tier *models.Tier) error
	GetTier(ctx context.Context, eventID, tierID int64) (*models.Tier, error)
	ListTiers(ctx context.Context, eventID int64) ([]models.Tier, error)
}

type KafkaPublisher interface {
	PublishEventCreated(event models.Event) error
}

// Service is the catalog store: events and tiers are append-only, so the only
// writes are the two create operations.
type Service struct {
	DB    DBLayer
	Kafka KafkaPublisher
}

func NewService(db DBLayer, kafka KafkaPublisher) *Service {
	return &Service{DB: db, Kafka: kafka}
}

func (s *Service) CreateEvent(ctx context.Context, name string, startTime time.Time, organizer string) (*models.Event, error) {
	if name == "" {
		return nil, fmt.Errorf("event name is required: %w", errs.ErrInvalidInput)
	}
	if startTime.IsZero() {
		return nil, fmt.Errorf("event start time is required: %w", errs.ErrInvalidInput)
	}
	if organizer == "" {
		return nil, fmt.Errorf("organizer identity is required: %w", errs.ErrInvalidInput)
	}

	event := &models.Event{
		Name:      name,
		StartTime: startTime,
		Organizer: organizer,
		CreatedAt: time.Now(),
	}
	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishEventCreated(*event); err != nil {
			fmt.Printf("Kafka publish error (event created): %v\n", err)
		}
	}
	return event, nil
}

func (s *Service) CreateTier(ctx context.Context, eventID int64, req models.CreateTierRequest) (*models.Tier, error) {
	if req.Capacity <= 0 {
		return nil, errs.ErrInvalidCapacity
	}
	if req.UnitPriceWei < 0 {
		return nil, fmt.Errorf("unit price must not be negative: %w", errs.ErrInvalidInput)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("tier name is required: %w", errs.ErrInvalidInput)
	}

	if _, err := s.DB.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	tierID, err := s.DB.NextTierID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate tier id: %w", err)
	}

	tier := &models.Tier{
		EventID:      eventID,
		TierID:       tierID,
		Name:         req.Name,
		UnitPriceWei: req.UnitPriceWei,
		Capacity:     req.Capacity,
		Sold:         0,
		Seated:       req.Seated,
	}
	if err := s.DB.CreateTier(ctx, tier); err != nil {
		return nil, fmt.Errorf("failed to create tier: %w", err)
	}
	return tier, nil
}

func (s *Service) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	return s.DB.GetEvent(ctx, eventID)
}

func (s *Service) GetTier(ctx context.Context, eventID, tierID int64) (*models.Tier, error) {
	return s.DB.GetTier(ctx, eventID, tierID)
}

func (s *Service) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.DB.ListEvents(ctx)
}

func (s *Service) ListTiers(ctx context.Context, eventID int64) ([]models.Tier, error) {
	if _, err := s.DB.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.DB.ListTiers(ctx, eventID)
}
