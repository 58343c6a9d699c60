package repository

import (
	"context"

	"reqwall/internal/domain/entity"
)

// ParticipantRepository is the read-only view of the external participant
// directory. The chat core never writes to it.
type ParticipantRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Participant, error)
}
