package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"reqwall/internal/domain/entity"
	"reqwall/pkg/errors"
)

// memStore is an in-memory stand-in for the Firestore repositories. It
// mirrors their atomicity contract: multi-record mutations happen under one
// lock, so concurrent callers observe all-or-nothing state.
type memStore struct {
	mu           sync.Mutex
	requirements map[string]*entity.Requirement
	chats        map[string]*entity.Chat
	messages     map[string][]*entity.Message
	participants map[string]*entity.Participant
}

func newMemStore() *memStore {
	return &memStore{
		requirements: make(map[string]*entity.Requirement),
		chats:        make(map[string]*entity.Chat),
		messages:     make(map[string][]*entity.Message),
		participants: make(map[string]*entity.Participant),
	}
}

func (s *memStore) addParticipant(id, eventID, name, profileImage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[id] = &entity.Participant{
		ID:           id,
		EventID:      eventID,
		Name:         name,
		ProfileImage: profileImage,
	}
}

// RequirementRepository

func (s *memStore) Create(ctx context.Context, requirement *entity.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	requirement.CreatedAt = now
	requirement.UpdatedAt = now
	stored := *requirement
	s.requirements[requirement.ID] = &stored
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*entity.Requirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	requirement, ok := s.requirements[id]
	if !ok {
		return nil, errors.NotFound("Requirement", nil)
	}
	copied := *requirement
	return &copied, nil
}

func (s *memStore) ListByEvent(ctx context.Context, eventID string) ([]*entity.Requirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Requirement
	for _, requirement := range s.requirements {
		if requirement.EventID == eventID {
			copied := *requirement
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ChatRepository

func (s *memStore) GetChatByID(ctx context.Context, id string) (*entity.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatCopy(id)
}

func (s *memStore) chatCopy(id string) (*entity.Chat, error) {
	chat, ok := s.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	copied := *chat
	return &copied, nil
}

func (s *memStore) FindByRequirementAndBidder(ctx context.Context, requirementID, bidderID string) (*entity.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chat := range s.chats {
		if chat.RequirementID == requirementID && chat.BidderID == bidderID {
			copied := *chat
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Chat", nil)
}

func (s *memStore) ListByRequirement(ctx context.Context, requirementID string) ([]*entity.Chat, error) {
	return s.listChats(func(chat *entity.Chat) bool { return chat.RequirementID == requirementID })
}

func (s *memStore) ListByPoster(ctx context.Context, posterID string) ([]*entity.Chat, error) {
	return s.listChats(func(chat *entity.Chat) bool { return chat.PostedBy == posterID })
}

func (s *memStore) ListByBidder(ctx context.Context, bidderID string) ([]*entity.Chat, error) {
	return s.listChats(func(chat *entity.Chat) bool { return chat.BidderID == bidderID })
}

func (s *memStore) listChats(match func(*entity.Chat) bool) ([]*entity.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Chat
	for _, chat := range s.chats {
		if match(chat) {
			copied := *chat
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	return out, nil
}

func (s *memStore) CreateWithFirstMessage(ctx context.Context, chat *entity.Chat, first *entity.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	requirement, ok := s.requirements[chat.RequirementID]
	if !ok {
		return errors.NotFound("Requirement", nil)
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	chat.LastActivity = now
	chat.MessageSeq = 1

	first.ChatID = chat.ID
	first.Seq = 1
	first.CreatedAt = now

	storedChat := *chat
	storedFirst := *first
	s.chats[chat.ID] = &storedChat
	s.messages[chat.ID] = append(s.messages[chat.ID], &storedFirst)
	requirement.BiddersCount++
	return nil
}

func (s *memStore) AppendMessage(ctx context.Context, chatID string, message *entity.Message, recipient entity.ChatSide) (*entity.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}

	now := time.Now()
	chat.MessageSeq++
	chat.LastActivity = now
	chat.UpdatedAt = now
	if recipient == entity.SidePoster {
		chat.UnreadCount.PostedBy++
	} else {
		chat.UnreadCount.Bidder++
	}

	message.ChatID = chatID
	message.Seq = chat.MessageSeq
	message.CreatedAt = now
	stored := *message
	s.messages[chatID] = append(s.messages[chatID], &stored)

	copied := *chat
	return &copied, nil
}

func (s *memStore) ResetUnread(ctx context.Context, chatID string, side entity.ChatSide) (*entity.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}

	if side == entity.SidePoster {
		chat.UnreadCount.PostedBy = 0
	} else {
		chat.UnreadCount.Bidder = 0
	}

	copied := *chat
	return &copied, nil
}

// MessageRepository

func (s *memStore) GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, message := range s.messages[chatID] {
		if message.ID == messageID {
			copied := *message
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (s *memStore) ListBefore(ctx context.Context, chatID string, beforeSeq int64, limit int) ([]*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.Message
	for _, message := range s.messages[chatID] {
		if beforeSeq > 0 && message.Seq >= beforeSeq {
			continue
		}
		copied := *message
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ParticipantRepository

func (s *memStore) GetParticipantByID(ctx context.Context, id string) (*entity.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	participant, ok := s.participants[id]
	if !ok {
		return nil, errors.NotFound("Participant", nil)
	}
	copied := *participant
	return &copied, nil
}

func (s *memStore) messageCount(chatID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages[chatID])
}

// The repository interfaces each declare their own GetByID, so the store is
// exposed through thin per-interface wrappers.

type fakeRequirementRepo struct{ *memStore }

type fakeChatRepo struct{ *memStore }

func (r fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	return r.GetChatByID(ctx, id)
}

type fakeMessageRepo struct{ *memStore }

func (r fakeMessageRepo) GetByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	return r.GetMessageByID(ctx, chatID, messageID)
}

type fakeParticipantRepo struct{ *memStore }

func (r fakeParticipantRepo) GetByID(ctx context.Context, id string) (*entity.Participant, error) {
	return r.GetParticipantByID(ctx, id)
}
