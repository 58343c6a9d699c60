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

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection("chats").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", nil)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	return &chat, nil
}

func (r *firestoreChatRepository) FindByRequirementAndBidder(ctx context.Context, requirementID, bidderID string) (*entity.Chat, error) {
	query := r.client.Collection("chats").
		Where("requirementId", "==", requirementID).
		Where("bidderId", "==", bidderID).
		Limit(1)

	iter := query.Documents(ctx)
	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Chat", nil)
		}
		return nil, errors.Internal("Failed to query chat by requirement and bidder", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	return &chat, nil
}

func (r *firestoreChatRepository) ListByRequirement(ctx context.Context, requirementID string) ([]*entity.Chat, error) {
	query := r.client.Collection("chats").
		Where("requirementId", "==", requirementID).
		OrderBy("lastActivity", firestore.Desc)

	return r.collectChats(ctx, query)
}

func (r *firestoreChatRepository) ListByPoster(ctx context.Context, posterID string) ([]*entity.Chat, error) {
	query := r.client.Collection("chats").
		Where("postedBy", "==", posterID).
		OrderBy("lastActivity", firestore.Desc)

	return r.collectChats(ctx, query)
}

func (r *firestoreChatRepository) ListByBidder(ctx context.Context, bidderID string) ([]*entity.Chat, error) {
	query := r.client.Collection("chats").
		Where("bidderId", "==", bidderID).
		OrderBy("lastActivity", firestore.Desc)

	return r.collectChats(ctx, query)
}

func (r *firestoreChatRepository) collectChats(ctx context.Context, query firestore.Query) ([]*entity.Chat, error) {
	iter := query.Documents(ctx)
	var chats []*entity.Chat

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate chats", err)
		}

		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			logger.Warn("Skipping malformed chat document %s: %v", doc.Ref.ID, err)
			continue
		}

		chats = append(chats, &chat)
	}

	return chats, nil
}

func (r *firestoreChatRepository) CreateWithFirstMessage(ctx context.Context, chat *entity.Chat, first *entity.Message) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	if first.ID == "" {
		first.ID = uuid.New().String()
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	chat.LastActivity = now
	chat.MessageSeq = 1

	first.ChatID = chat.ID
	first.Seq = 1
	first.CreatedAt = now

	chatRef := r.client.Collection("chats").Doc(chat.ID)
	messageRef := chatRef.Collection("messages").Doc(first.ID)
	requirementRef := r.client.Collection("requirements").Doc(chat.RequirementID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(requirementRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Requirement", nil)
			}
			return err
		}

		if err := tx.Create(chatRef, chat); err != nil {
			return err
		}
		if err := tx.Create(messageRef, first); err != nil {
			return err
		}
		return tx.Update(requirementRef, []firestore.Update{
			{Path: "biddersCount", Value: firestore.Increment(1)},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return err
		}
		return errors.Internal("Failed to create chat with first message", err)
	}

	return nil
}

func (r *firestoreChatRepository) AppendMessage(ctx context.Context, chatID string, message *entity.Message, recipient entity.ChatSide) (*entity.Chat, error) {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	chatRef := r.client.Collection("chats").Doc(chatID)

	unreadPath := "unreadCount.bidder"
	if recipient == entity.SidePoster {
		unreadPath = "unreadCount.postedBy"
	}

	var updated entity.Chat

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(chatRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Chat", nil)
			}
			return err
		}

		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			return err
		}

		now := time.Now()
		message.ChatID = chatID
		message.Seq = chat.MessageSeq + 1
		message.CreatedAt = now

		messageRef := chatRef.Collection("messages").Doc(message.ID)
		if err := tx.Create(messageRef, message); err != nil {
			return err
		}

		if err := tx.Update(chatRef, []firestore.Update{
			{Path: "messageSeq", Value: firestore.Increment(1)},
			{Path: "lastActivity", Value: now},
			{Path: "updatedAt", Value: now},
			{Path: unreadPath, Value: firestore.Increment(1)},
		}); err != nil {
			return err
		}

		updated = chat
		updated.MessageSeq = message.Seq
		updated.LastActivity = now
		updated.UpdatedAt = now
		if recipient == entity.SidePoster {
			updated.UnreadCount.PostedBy++
		} else {
			updated.UnreadCount.Bidder++
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, err
		}
		return nil, errors.Internal("Failed to append message", err)
	}

	return &updated, nil
}

func (r *firestoreChatRepository) ResetUnread(ctx context.Context, chatID string, side entity.ChatSide) (*entity.Chat, error) {
	chatRef := r.client.Collection("chats").Doc(chatID)

	unreadPath := "unreadCount.bidder"
	if side == entity.SidePoster {
		unreadPath = "unreadCount.postedBy"
	}

	_, err := chatRef.Update(ctx, []firestore.Update{
		{Path: unreadPath, Value: 0},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", nil)
		}
		return nil, errors.Internal("Failed to reset unread count", err)
	}

	return r.GetByID(ctx, chatID)
}
