package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"reqwall/internal/domain/entity"
	"reqwall/internal/domain/repository"
	"reqwall/internal/infrastructure/ratelimit"
	"reqwall/pkg/errors"
	"reqwall/pkg/logger"
	"reqwall/pkg/utils"
)

type RequirementUseCase struct {
	requirementRepo repository.RequirementRepository
	chatRepo        repository.ChatRepository
	participantRepo repository.ParticipantRepository
	rateLimiter     *ratelimit.RateLimiter
}

func NewRequirementUseCase(
	requirementRepo repository.RequirementRepository,
	chatRepo repository.ChatRepository,
	participantRepo repository.ParticipantRepository,
) *RequirementUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &RequirementUseCase{
		requirementRepo: requirementRepo,
		chatRepo:        chatRepo,
		participantRepo: participantRepo,
		rateLimiter:     rateLimiter,
	}
}

type CreateRequirementInput struct {
	Title              string  `json:"title" validate:"required"`
	Description        string  `json:"description" validate:"required"`
	Budget             float64 `json:"budget" validate:"omitempty,gte=0"`
	Currency           string  `json:"currency"`
	LocationPreference string  `json:"location_preference"`
}

// RequirementListItem is one row of the requirement wall, enriched with the
// poster's identity and a preview of who has already bid.
type RequirementListItem struct {
	*entity.Requirement
	Poster              *ParticipantInfo `json:"poster"`
	MembersCount        int              `json:"membersCount"`
	BidderProfileImages []string         `json:"bidderProfileImages"`
	IsUserPosted        bool             `json:"isUserPosted"`
}

// RequirementResponse is one bidder's conversation on a requirement, seen
// from the poster's side.
type RequirementResponse struct {
	ChatID       string           `json:"chat_id"`
	Bidder       *ParticipantInfo `json:"bidder"`
	LastActivity time.Time        `json:"last_activity"`
	UnreadCount  int              `json:"unread_count"`
}

type RequirementDetail struct {
	*entity.Requirement
	Poster       *ParticipantInfo       `json:"poster"`
	IsUserPosted bool                   `json:"isUserPosted"`
	Responses    []*RequirementResponse `json:"responses,omitempty"`
	MyResponse   *RequirementResponse   `json:"myResponse,omitempty"`
}

func (uc *RequirementUseCase) Create(ctx context.Context, posterID, eventID string, input CreateRequirementInput) (*entity.Requirement, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, errors.BadRequest("Title and description are required", nil)
	}

	if allowed, waitTime := uc.rateLimiter.Allow(posterID, "post_requirement"); !allowed {
		logger.Warn("Create requirement rate limited: participant %s must wait %v", posterID, waitTime)
		return nil, errors.TooManyRequests("Too many requirements posted. Please wait before posting again")
	}

	requirement := &entity.Requirement{
		ID:                 uuid.New().String(),
		EventID:            eventID,
		Title:              title,
		Description:        description,
		Budget:             input.Budget,
		Currency:           input.Currency,
		LocationPreference: input.LocationPreference,
		PostedBy:           posterID,
	}

	if err := uc.requirementRepo.Create(ctx, requirement); err != nil {
		return nil, err
	}

	logger.Info("Requirement %s posted by %s in event %s", requirement.ID, posterID, eventID)
	return requirement, nil
}

// List returns the requirement wall for an event. listType "postedByMe"
// narrows to the caller's own postings; search matches title, description
// and poster name case-insensitively.
func (uc *RequirementUseCase) List(ctx context.Context, callerID, eventID, listType, search string, page, limit int) ([]*RequirementListItem, *utils.PageInfo, error) {
	requirements, err := uc.requirementRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}

	identities := make(map[string]*ParticipantInfo)
	search = strings.ToLower(strings.TrimSpace(search))

	filtered := make([]*RequirementListItem, 0, len(requirements))
	for _, requirement := range requirements {
		if listType == "postedByMe" && requirement.PostedBy != callerID {
			continue
		}

		poster := uc.resolveIdentity(ctx, requirement.PostedBy, identities)
		if search != "" &&
			!strings.Contains(strings.ToLower(requirement.Title), search) &&
			!strings.Contains(strings.ToLower(requirement.Description), search) &&
			!strings.Contains(strings.ToLower(poster.Name), search) {
			continue
		}

		filtered = append(filtered, &RequirementListItem{
			Requirement:  requirement,
			Poster:       poster,
			MembersCount: requirement.BiddersCount,
			IsUserPosted: requirement.PostedBy == callerID,
		})
	}

	pageInfo := utils.NewPageInfo(page, limit, int64(len(filtered)))
	start, end := utils.PageBounds(page, limit, len(filtered))
	pageItems := filtered[start:end]

	// Avatar previews only for the rows actually returned.
	for _, item := range pageItems {
		item.BidderProfileImages = uc.bidderAvatars(ctx, item.Requirement.ID, identities)
	}

	return pageItems, &pageInfo, nil
}

// GetByID returns the requirement detail. The poster sees every bidder's
// conversation; a bidder sees only their own.
func (uc *RequirementUseCase) GetByID(ctx context.Context, callerID, requirementID string) (*RequirementDetail, error) {
	requirement, err := uc.requirementRepo.GetByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}

	identities := make(map[string]*ParticipantInfo)
	detail := &RequirementDetail{
		Requirement:  requirement,
		Poster:       uc.resolveIdentity(ctx, requirement.PostedBy, identities),
		IsUserPosted: requirement.PostedBy == callerID,
	}

	if detail.IsUserPosted {
		chats, err := uc.chatRepo.ListByRequirement(ctx, requirementID)
		if err != nil {
			return nil, err
		}
		detail.Responses = make([]*RequirementResponse, 0, len(chats))
		for _, chat := range chats {
			detail.Responses = append(detail.Responses, uc.responseRow(ctx, chat, identities))
		}
		return detail, nil
	}

	chat, err := uc.chatRepo.FindByRequirementAndBidder(ctx, requirementID, callerID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return detail, nil
		}
		return nil, err
	}
	detail.MyResponse = uc.responseRow(ctx, chat, identities)

	return detail, nil
}

func (uc *RequirementUseCase) responseRow(ctx context.Context, chat *entity.Chat, identities map[string]*ParticipantInfo) *RequirementResponse {
	return &RequirementResponse{
		ChatID:       chat.ID,
		Bidder:       uc.resolveIdentity(ctx, chat.BidderID, identities),
		LastActivity: chat.LastActivity,
		UnreadCount:  chat.UnreadCount.PostedBy,
	}
}

func (uc *RequirementUseCase) bidderAvatars(ctx context.Context, requirementID string, identities map[string]*ParticipantInfo) []string {
	chats, err := uc.chatRepo.ListByRequirement(ctx, requirementID)
	if err != nil {
		logger.Debug("Could not load chats for requirement %s avatar preview: %v", requirementID, err)
		return []string{}
	}

	avatars := make([]string, 0, 3)
	for _, chat := range chats {
		if len(avatars) == 3 {
			break
		}
		bidder := uc.resolveIdentity(ctx, chat.BidderID, identities)
		if bidder.ProfileImage != "" {
			avatars = append(avatars, bidder.ProfileImage)
		}
	}
	return avatars
}

func (uc *RequirementUseCase) resolveIdentity(ctx context.Context, participantID string, identities map[string]*ParticipantInfo) *ParticipantInfo {
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
