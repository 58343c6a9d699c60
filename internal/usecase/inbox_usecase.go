package usecase

import (
	"context"
	"time"

	"reqwall/internal/domain/entity"
	"reqwall/internal/domain/repository"
	"reqwall/pkg/errors"
	"reqwall/pkg/logger"
	"reqwall/pkg/utils"
)

// InboxUseCase builds the read-only conversation projections: the poster's
// and bidder's inboxes, per-requirement chat lists and the unread badge.
// It never mutates chat state.
type InboxUseCase struct {
	chatRepo        repository.ChatRepository
	requirementRepo repository.RequirementRepository
	participantRepo repository.ParticipantRepository
}

func NewInboxUseCase(
	chatRepo repository.ChatRepository,
	requirementRepo repository.RequirementRepository,
	participantRepo repository.ParticipantRepository,
) *InboxUseCase {
	return &InboxUseCase{
		chatRepo:        chatRepo,
		requirementRepo: requirementRepo,
		participantRepo: participantRepo,
	}
}

// InboxItem is one conversation row. Other is the member opposite the
// caller and UnreadCount is the caller's own side of the counter.
type InboxItem struct {
	ChatID           string           `json:"chat_id"`
	RequirementID    string           `json:"requirement_id"`
	RequirementTitle string           `json:"requirement_title"`
	Other            *ParticipantInfo `json:"other"`
	LastActivity     time.Time        `json:"last_activity"`
	UnreadCount      int              `json:"unread_count"`
}

type UnreadBadge struct {
	PostedByMeUnread int `json:"postedByMeUnread"`
	AllUnread        int `json:"allUnread"`
	TotalUnread      int `json:"totalUnread"`
}

// PostedByMe lists the caller's owned requirements that have bids, one row
// per requirement carrying its most recently active chat.
func (uc *InboxUseCase) PostedByMe(ctx context.Context, callerID string, page, limit int) ([]*InboxItem, *utils.PageInfo, error) {
	chats, err := uc.chatRepo.ListByPoster(ctx, callerID)
	if err != nil {
		return nil, nil, err
	}

	// Chats arrive lastActivity-descending, so the first chat seen for a
	// requirement is its most recent one.
	seen := make(map[string]bool)
	latest := make([]*entity.Chat, 0, len(chats))
	for _, chat := range chats {
		if seen[chat.RequirementID] {
			continue
		}
		seen[chat.RequirementID] = true
		latest = append(latest, chat)
	}

	pageInfo := utils.NewPageInfo(page, limit, int64(len(latest)))
	start, end := utils.PageBounds(page, limit, len(latest))

	items := uc.buildItems(ctx, latest[start:end], callerID)
	return items, &pageInfo, nil
}

// All lists every chat where the caller is the bidder.
func (uc *InboxUseCase) All(ctx context.Context, callerID string, page, limit int) ([]*InboxItem, *utils.PageInfo, error) {
	chats, err := uc.chatRepo.ListByBidder(ctx, callerID)
	if err != nil {
		return nil, nil, err
	}

	pageInfo := utils.NewPageInfo(page, limit, int64(len(chats)))
	start, end := utils.PageBounds(page, limit, len(chats))

	items := uc.buildItems(ctx, chats[start:end], callerID)
	return items, &pageInfo, nil
}

// RequirementChats lists all conversations on one requirement. Only the
// requirement's owner may see them; anyone else gets the same not-found
// answer as a missing requirement.
func (uc *InboxUseCase) RequirementChats(ctx context.Context, callerID, requirementID string) ([]*InboxItem, error) {
	requirement, err := uc.requirementRepo.GetByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if requirement.PostedBy != callerID {
		return nil, errors.NotFound("Requirement", nil)
	}

	chats, err := uc.chatRepo.ListByRequirement(ctx, requirementID)
	if err != nil {
		return nil, err
	}

	return uc.buildItems(ctx, chats, callerID), nil
}

// UnreadCounts sums the caller's unread counters across both inbox tabs.
func (uc *InboxUseCase) UnreadCounts(ctx context.Context, callerID string) (*UnreadBadge, error) {
	posted, err := uc.chatRepo.ListByPoster(ctx, callerID)
	if err != nil {
		return nil, err
	}
	bidding, err := uc.chatRepo.ListByBidder(ctx, callerID)
	if err != nil {
		return nil, err
	}

	badge := &UnreadBadge{}
	for _, chat := range posted {
		badge.PostedByMeUnread += chat.UnreadCount.PostedBy
	}
	for _, chat := range bidding {
		badge.AllUnread += chat.UnreadCount.Bidder
	}
	badge.TotalUnread = badge.PostedByMeUnread + badge.AllUnread

	return badge, nil
}

func (uc *InboxUseCase) buildItems(ctx context.Context, chats []*entity.Chat, callerID string) []*InboxItem {
	identities := make(map[string]*ParticipantInfo)
	titles := make(map[string]string)

	items := make([]*InboxItem, 0, len(chats))
	for _, chat := range chats {
		items = append(items, &InboxItem{
			ChatID:           chat.ID,
			RequirementID:    chat.RequirementID,
			RequirementTitle: uc.requirementTitle(ctx, chat.RequirementID, titles),
			Other:            uc.resolveIdentity(ctx, chat.OtherMember(callerID), identities),
			LastActivity:     chat.LastActivity,
			UnreadCount:      chat.UnreadFor(callerID),
		})
	}
	return items
}

func (uc *InboxUseCase) requirementTitle(ctx context.Context, requirementID string, titles map[string]string) string {
	if title, ok := titles[requirementID]; ok {
		return title
	}

	title := ""
	requirement, err := uc.requirementRepo.GetByID(ctx, requirementID)
	if err != nil {
		logger.Debug("Could not resolve requirement %s for inbox row: %v", requirementID, err)
	} else {
		title = requirement.Title
	}

	titles[requirementID] = title
	return title
}

func (uc *InboxUseCase) resolveIdentity(ctx context.Context, participantID string, identities map[string]*ParticipantInfo) *ParticipantInfo {
	if info, ok := identities[participantID]; ok {
		return info
	}

	info := &ParticipantInfo{ID: participantID, Name: "Unknown User"}
	participant, err := uc.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		logger.Debug("Could not resolve participant %s: %v", participantID, err)
	} else {
		info.Name = participant.Name
		info.ProfileImage = participant.ProfileImage
	}

	identities[participantID] = info
	return info
}
