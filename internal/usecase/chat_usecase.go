package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"reqwall/internal/domain/entity"
	"reqwall/internal/domain/repository"
	"reqwall/internal/infrastructure/ratelimit"
	ws "reqwall/internal/infrastructure/websocket"
	"reqwall/pkg/errors"
	"reqwall/pkg/logger"
)

type ChatUseCase struct {
	chatRepo        repository.ChatRepository
	messageRepo     repository.MessageRepository
	requirementRepo repository.RequirementRepository
	participantRepo repository.ParticipantRepository
	wsManager       *ws.Manager
	rateLimiter     *ratelimit.RateLimiter
	defaultLimit    int
	maxLimit        int
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	messageRepo repository.MessageRepository,
	requirementRepo repository.RequirementRepository,
	participantRepo repository.ParticipantRepository,
	wsManager *ws.Manager,
	defaultLimit, maxLimit int,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		chatRepo:        chatRepo,
		messageRepo:     messageRepo,
		requirementRepo: requirementRepo,
		participantRepo: participantRepo,
		wsManager:       wsManager,
		rateLimiter:     rateLimiter,
		defaultLimit:    defaultLimit,
		maxLimit:        maxLimit,
	}
}

// ParticipantInfo is the resolved identity attached to messages and inbox
// rows. Unresolvable ids degrade to a placeholder name instead of failing
// the whole operation.
type ParticipantInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image,omitempty"`
}

type MessageView struct {
	ID           string              `json:"id"`
	ChatID       string              `json:"chat_id"`
	Sender       ParticipantInfo     `json:"sender"`
	Text         string              `json:"text,omitempty"`
	Attachments  []entity.Attachment `json:"attachments"`
	IsOwnMessage bool                `json:"isOwnMessage"`
	CreatedAt    time.Time           `json:"created_at"`
}

type SubmitBidInput struct {
	RequirementID string `json:"requirement_id" validate:"required"`
	Message       string `json:"message" validate:"required"`
}

type BidResult struct {
	Chat         *entity.Chat `json:"chat"`
	FirstMessage *MessageView `json:"first_message"`
}

type MessagePage struct {
	Messages    []*MessageView `json:"messages"`
	HasNextPage bool           `json:"hasNextPage"`
	NextCursor  *string        `json:"nextCursor"`
	Limit       int            `json:"limit"`
}

// SubmitBid opens the conversation between a bidder and a requirement's
// poster: one chat, its first message and the requirement's bidder counter
// are written as a single atomic unit.
func (uc *ChatUseCase) SubmitBid(ctx context.Context, bidderID string, input SubmitBidInput) (*BidResult, error) {
	text := strings.TrimSpace(input.Message)
	if input.RequirementID == "" || text == "" {
		return nil, errors.BadRequest("Requirement id and message are required", nil)
	}

	if allowed, waitTime := uc.rateLimiter.Allow(bidderID, "submit_bid"); !allowed {
		logger.Warn("SubmitBid rate limited: participant %s must wait %v", bidderID, waitTime)
		return nil, errors.TooManyRequests("Too many bids. Please wait before bidding again")
	}

	requirement, err := uc.requirementRepo.GetByID(ctx, input.RequirementID)
	if err != nil {
		return nil, err
	}

	if requirement.PostedBy == bidderID {
		return nil, errors.BadRequest("You cannot bid on your own requirement", nil)
	}

	if _, err := uc.chatRepo.FindByRequirementAndBidder(ctx, input.RequirementID, bidderID); err == nil {
		return nil, errors.Conflict("You have already submitted a bid on this requirement")
	} else if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	chat := &entity.Chat{
		ID:            uuid.New().String(),
		RequirementID: requirement.ID,
		PostedBy:      requirement.PostedBy,
		BidderID:      bidderID,
		UnreadCount:   entity.UnreadCount{PostedBy: 1, Bidder: 0},
	}
	first := &entity.Message{
		ID:       uuid.New().String(),
		SenderID: bidderID,
		Text:     text,
	}

	if err := uc.chatRepo.CreateWithFirstMessage(ctx, chat, first); err != nil {
		return nil, err
	}

	logger.Info("Bid submitted: chat %s on requirement %s by %s", chat.ID, requirement.ID, bidderID)

	uc.pushNewMessage(ctx, chat, first)
	uc.pushUnreadCounts(chat)

	return &BidResult{
		Chat:         chat,
		FirstMessage: uc.formatMessage(ctx, first, bidderID, nil),
	}, nil
}

// SendMessage appends to an active chat and fans the result out to both
// members' personal channels. REST and socket sends both land here.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID, chatID, text string) (*MessageView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.BadRequest("Message text is required", nil)
	}

	if allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message"); !allowed {
		logger.Warn("SendMessage rate limited: participant %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("Too many messages. Please slow down")
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsMember(senderID) {
		return nil, errors.Forbidden("You are not a member of this chat", nil)
	}

	message := &entity.Message{
		ID:       uuid.New().String(),
		SenderID: senderID,
		Text:     text,
	}

	recipient := chat.SideOf(chat.OtherMember(senderID))
	updated, err := uc.chatRepo.AppendMessage(ctx, chatID, message, recipient)
	if err != nil {
		return nil, err
	}

	uc.pushNewMessage(ctx, updated, message)
	uc.pushUnreadCounts(updated)

	return uc.formatMessage(ctx, message, senderID, nil), nil
}

// FetchMessages pages through a chat's history. The cursor is a message id;
// pages are returned in chronological order with the newest page first.
func (uc *ChatUseCase) FetchMessages(ctx context.Context, requesterID, chatID, cursor string, limit int) (*MessagePage, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsMember(requesterID) {
		return nil, errors.Forbidden("You are not a member of this chat", nil)
	}

	if limit <= 0 {
		limit = uc.defaultLimit
	}
	if limit > uc.maxLimit {
		limit = uc.maxLimit
	}

	var beforeSeq int64
	if cursor != "" {
		anchor, err := uc.messageRepo.GetByID(ctx, chatID, cursor)
		if err != nil {
			if errors.Is(err, "NOT_FOUND") {
				return nil, errors.BadRequest("Invalid pagination cursor", nil)
			}
			return nil, err
		}
		beforeSeq = anchor.Seq
	}

	// Overfetch by one to learn whether an older page exists.
	rows, err := uc.messageRepo.ListBefore(ctx, chatID, beforeSeq, limit+1)
	if err != nil {
		return nil, err
	}

	hasNextPage := len(rows) > limit
	if hasNextPage {
		rows = rows[:limit]
	}

	// Newest-first from storage, chronological for the caller.
	views := make([]*MessageView, len(rows))
	identities := make(map[string]*ParticipantInfo)
	for i, row := range rows {
		views[len(rows)-1-i] = uc.formatMessage(ctx, row, requesterID, identities)
	}

	page := &MessagePage{
		Messages:    views,
		HasNextPage: hasNextPage,
		Limit:       limit,
	}
	if hasNextPage && len(views) > 0 {
		oldest := views[0].ID
		page.NextCursor = &oldest
	}

	return page, nil
}

// MarkAsRead zeroes the caller's unread counter and pushes the fresh counts
// to both members. Calling it again without an intervening message is a
// no-op.
func (uc *ChatUseCase) MarkAsRead(ctx context.Context, requesterID, chatID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.IsMember(requesterID) {
		return errors.Forbidden("You are not a member of this chat", nil)
	}

	updated, err := uc.chatRepo.ResetUnread(ctx, chatID, chat.SideOf(requesterID))
	if err != nil {
		return err
	}

	uc.pushUnreadCounts(updated)
	return nil
}

// AuthorizeMember loads a chat and verifies membership. The gateway calls
// this before admitting a connection to a chat room; room membership itself
// is never an authorization source.
func (uc *ChatUseCase) AuthorizeMember(ctx context.Context, participantID, chatID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsMember(participantID) {
		return nil, errors.Forbidden("You are not a member of this chat", nil)
	}
	return chat, nil
}

// pushNewMessage delivers a message to both members' personal channels with
// isOwnMessage computed per recipient, so pushes arrive even when no chat
// room is open.
func (uc *ChatUseCase) pushNewMessage(ctx context.Context, chat *entity.Chat, message *entity.Message) {
	identities := make(map[string]*ParticipantInfo)
	for _, memberID := range []string{chat.PostedBy, chat.BidderID} {
		uc.wsManager.SendToParticipant(memberID, ws.Event{
			Event: ws.EventNewMessage,
			Data: ws.NewMessagePayload{
				ChatID:  chat.ID,
				Message: uc.formatMessage(ctx, message, memberID, identities),
			},
		})
	}
}

func (uc *ChatUseCase) pushUnreadCounts(chat *entity.Chat) {
	event := ws.Event{
		Event: ws.EventUnreadCountUpdated,
		Data: ws.UnreadCountPayload{
			ChatID:        chat.ID,
			PostedByCount: chat.UnreadCount.PostedBy,
			BidderCount:   chat.UnreadCount.Bidder,
		},
	}
	uc.wsManager.SendToParticipant(chat.PostedBy, event)
	uc.wsManager.SendToParticipant(chat.BidderID, event)
}

func (uc *ChatUseCase) formatMessage(ctx context.Context, message *entity.Message, viewerID string, identities map[string]*ParticipantInfo) *MessageView {
	attachments := message.Attachments
	if attachments == nil {
		attachments = []entity.Attachment{}
	}

	return &MessageView{
		ID:           message.ID,
		ChatID:       message.ChatID,
		Sender:       *uc.resolveParticipant(ctx, message.SenderID, identities),
		Text:         message.Text,
		Attachments:  attachments,
		IsOwnMessage: message.SenderID == viewerID,
		CreatedAt:    message.CreatedAt,
	}
}

// resolveParticipant looks an id up in the directory, memoizing in
// identities when provided. Directory failures degrade to a placeholder.
func (uc *ChatUseCase) resolveParticipant(ctx context.Context, participantID string, identities map[string]*ParticipantInfo) *ParticipantInfo {
	if identities != nil {
		if info, ok := identities[participantID]; ok {
			return info
		}
	}

	info := &ParticipantInfo{ID: participantID, Name: "Unknown User"}
	participant, err := uc.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		logger.Debug("Could not resolve participant %s: %v", participantID, err)
	} else {
		info.Name = participant.Name
		info.ProfileImage = participant.ProfileImage
	}

	if identities != nil {
		identities[participantID] = info
	}
	return info
}
