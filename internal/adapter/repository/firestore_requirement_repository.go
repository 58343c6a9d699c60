package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"reqwall/internal/domain/entity"
	"reqwall/internal/domain/repository"
	"reqwall/pkg/errors"
	"reqwall/pkg/logger"
)

type firestoreRequirementRepository struct {
	client *firestore.Client
}

func NewFirestoreRequirementRepository(client *firestore.Client) repository.RequirementRepository {
	return &firestoreRequirementRepository{
		client: client,
	}
}

func (r *firestoreRequirementRepository) Create(ctx context.Context, requirement *entity.Requirement) error {
	if requirement.ID == "" {
		requirement.ID = uuid.New().String()
	}

	now := time.Now()
	requirement.CreatedAt = now
	requirement.UpdatedAt = now

	_, err := r.client.Collection("requirements").Doc(requirement.ID).Set(ctx, requirement)
	if err != nil {
		return errors.Internal("Failed to create requirement", err)
	}

	return nil
}

func (r *firestoreRequirementRepository) GetByID(ctx context.Context, id string) (*entity.Requirement, error) {
	doc, err := r.client.Collection("requirements").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Requirement", nil)
		}
		return nil, errors.Internal("Failed to get requirement", err)
	}

	var requirement entity.Requirement
	if err := doc.DataTo(&requirement); err != nil {
		return nil, errors.Internal("Failed to parse requirement data", err)
	}

	return &requirement, nil
}

func (r *firestoreRequirementRepository) ListByEvent(ctx context.Context, eventID string) ([]*entity.Requirement, error) {
	query := r.client.Collection("requirements").
		Where("eventId", "==", eventID).
		OrderBy("createdAt", firestore.Desc)

	iter := query.Documents(ctx)
	var requirements []*entity.Requirement

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating requirements for event %s: %v", eventID, err)
			return nil, errors.Internal("Failed to iterate requirements", err)
		}

		var requirement entity.Requirement
		if err := doc.DataTo(&requirement); err != nil {
			logger.Warn("Skipping malformed requirement document %s: %v", doc.Ref.ID, err)
			continue
		}

		requirements = append(requirements, &requirement)
	}

	return requirements, nil
}
