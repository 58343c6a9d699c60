package repository

import (
	"context"

	"reqwall/internal/domain/entity"
)

type ChatRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	// FindByRequirementAndBidder returns the unique chat for a
	// (requirement, bidder) pair, or a NOT_FOUND error.
	FindByRequirementAndBidder(ctx context.Context, requirementID, bidderID string) (*entity.Chat, error)

	// ListByRequirement, ListByPoster and ListByBidder return chats
	// ordered by lastActivity descending.
	ListByRequirement(ctx context.Context, requirementID string) ([]*entity.Chat, error)
	ListByPoster(ctx context.Context, posterID string) ([]*entity.Chat, error)
	ListByBidder(ctx context.Context, bidderID string) ([]*entity.Chat, error)

	// CreateWithFirstMessage atomically creates the chat, its first
	// message and increments the requirement's biddersCount. On failure
	// none of the three writes is visible.
	CreateWithFirstMessage(ctx context.Context, chat *entity.Chat, first *entity.Message) error

	// AppendMessage atomically appends a message (assigning its per-chat
	// sequence number), bumps lastActivity and increments the recipient
	// side's unread counter. Returns the chat as of after the append.
	AppendMessage(ctx context.Context, chatID string, message *entity.Message, recipient entity.ChatSide) (*entity.Chat, error)

	// ResetUnread zeroes one side's unread counter. Idempotent. Returns
	// the chat as of after the reset.
	ResetUnread(ctx context.Context, chatID string, side entity.ChatSide) (*entity.Chat, error)
}
