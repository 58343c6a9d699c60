package repository

import (
	"context"

	"reqwall/internal/domain/entity"
)

type RequirementRepository interface {
	Create(ctx context.Context, requirement *entity.Requirement) error
	GetByID(ctx context.Context, id string) (*entity.Requirement, error)
	// ListByEvent returns all requirements for an event, newest first.
	ListByEvent(ctx context.Context, eventID string) ([]*entity.Requirement, error)
}
