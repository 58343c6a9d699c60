package repository

import (
	"context"

	"reqwall/internal/domain/entity"
)

type MessageRepository interface {
	GetByID(ctx context.Context, chatID, messageID string) (*entity.Message, error)
	// ListBefore returns up to limit messages of the chat with a sequence
	// number strictly below beforeSeq, newest first. A beforeSeq <= 0
	// means "from the latest message".
	ListBefore(ctx context.Context, chatID string, beforeSeq int64, limit int) ([]*entity.Message, error)
}
