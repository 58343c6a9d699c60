package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reqwall/internal/domain/entity"
	ws "reqwall/internal/infrastructure/websocket"
	"reqwall/pkg/errors"
)

func newTestChatUseCase(store *memStore) *ChatUseCase {
	return NewChatUseCase(
		fakeChatRepo{store},
		fakeMessageRepo{store},
		fakeRequirementRepo{store},
		fakeParticipantRepo{store},
		ws.NewManager(),
		20, 50,
	)
}

func seedRequirement(t *testing.T, store *memStore, id, eventID, posterID string) *entity.Requirement {
	t.Helper()
	requirement := &entity.Requirement{
		ID:          id,
		EventID:     eventID,
		Title:       "Need a logo",
		Description: "Looking for a designer",
		Budget:      500,
		Currency:    "INR",
		PostedBy:    posterID,
	}
	require.NoError(t, store.Create(context.Background(), requirement))
	return requirement
}

func TestSubmitBidCreatesChatFirstMessageAndCounter(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)
	ctx := context.Background()

	store.addParticipant("p1", "evt", "Priya", "priya.png")
	store.addParticipant("q1", "evt", "Quentin", "")
	seedRequirement(t, store, "req-1", "evt", "p1")

	result, err := uc.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: "req-1", Message: "I can do this"})
	require.NoError(t, err)

	assert.Equal(t, "req-1", result.Chat.RequirementID)
	assert.Equal(t, "p1", result.Chat.PostedBy)
	assert.Equal(t, "q1", result.Chat.BidderID)
	assert.Equal(t, 1, result.Chat.UnreadCount.PostedBy)
	assert.Equal(t, 0, result.Chat.UnreadCount.Bidder)

	require.NotNil(t, result.FirstMessage)
	assert.Equal(t, "I can do this", result.FirstMessage.Text)
	assert.Equal(t, "q1", result.FirstMessage.Sender.ID)
	assert.Equal(t, "Quentin", result.FirstMessage.Sender.Name)
	assert.True(t, result.FirstMessage.IsOwnMessage)

	requirement, err := store.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, 1, requirement.BiddersCount)
	assert.Equal(t, 1, store.messageCount(result.Chat.ID))
}

func TestSubmitBidRejectsSelfBid(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)
	ctx := context.Background()

	seedRequirement(t, store, "req-1", "evt", "p1")

	_, err := uc.SubmitBid(ctx, "p1", SubmitBidInput{RequirementID: "req-1", Message: "me too"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	requirement, _ := store.GetByID(ctx, "req-1")
	assert.Equal(t, 0, requirement.BiddersCount)
	chats, _ := store.ListByRequirement(ctx, "req-1")
	assert.Empty(t, chats)
}

func TestSubmitBidRejectsDuplicateBid(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)
	ctx := context.Background()

	seedRequirement(t, store, "req-1", "evt", "p1")

	first, err := uc.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: "req-1", Message: "first"})
	require.NoError(t, err)

	_, err = uc.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: "req-1", Message: "second"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"))

	requirement, _ := store.GetByID(ctx, "req-1")
	assert.Equal(t, 1, requirement.BiddersCount)
	assert.Equal(t, 1, store.messageCount(first.Chat.ID))
}

func TestSubmitBidRequiresExistingRequirement(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)

	_, err := uc.SubmitBid(context.Background(), "q1", SubmitBidInput{RequirementID: "nope", Message: "hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestSendMessageRoundTripAndUnreadCounters(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)
	ctx := context.Background()

	store.addParticipant("p1", "evt", "Priya", "")
	store.addParticipant("q1", "evt", "Quentin", "")
	seedRequirement(t, store, "req-1", "evt", "p1")

	bid, err := uc.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: "req-1", Message: "I can do this"})
	require.NoError(t, err)
	chatID := bid.Chat.ID

	// Poster reads the bid, replies; the bidder's counter picks it up.
	require.NoError(t, uc.MarkAsRead(ctx, "p1", chatID))
	sent, err := uc.SendMessage(ctx, "p1", chatID, "What's your timeline?")
	require.NoError(t, err)
	assert.True(t, sent.IsOwnMessage)
	assert.Equal(t, "Priya", sent.Sender.Name)

	chat, err := store.GetChatByID(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, 0, chat.UnreadCount.PostedBy)
	assert.Equal(t, 1, chat.UnreadCount.Bidder)

	// The bidder replies back.
	require.NoError(t, uc.MarkAsRead(ctx, "q1", chatID))
	_, err = uc.SendMessage(ctx, "q1", chatID, "2 weeks")
	require.NoError(t, err)

	chat, _ = store.GetChatByID(ctx, chatID)
	assert.Equal(t, 1, chat.UnreadCount.PostedBy)
	assert.Equal(t, 0, chat.UnreadCount.Bidder)

	// Both members fetch; the latest message is last and isOwnMessage is
	// computed per viewer.
	posterPage, err := uc.FetchMessages(ctx, "p1", chatID, "", 10)
	require.NoError(t, err)
	require.Len(t, posterPage.Messages, 3)
	last := posterPage.Messages[len(posterPage.Messages)-1]
	assert.Equal(t, "2 weeks", last.Text)
	assert.False(t, last.IsOwnMessage)

	bidderPage, err := uc.FetchMessages(ctx, "q1", chatID, "", 10)
	require.NoError(t, err)
	assert.True(t, bidderPage.Messages[len(bidderPage.Messages)-1].IsOwnMessage)
}

func TestMarkAsReadIsIdempotent(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)
	ctx := context.Background()

	seedRequirement(t, store, "req-1", "evt", "p1")
	bid, err := uc.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: "req-1", Message: "hello"})
	require.NoError(t, err)

	require.NoError(t, uc.MarkAsRead(ctx, "p1", bid.Chat.ID))
	require.NoError(t, uc.MarkAsRead(ctx, "p1", bid.Chat.ID))

	chat, _ := store.GetChatByID(ctx, bid.Chat.ID)
	assert.Equal(t, 0, chat.UnreadCount.PostedBy)
	assert.Equal(t, 0, chat.UnreadCount.Bidder)
}

func TestNonMemberOperationsAreRejectedWithoutMutation(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)
	ctx := context.Background()

	seedRequirement(t, store, "req-1", "evt", "p1")
	bid, err := uc.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: "req-1", Message: "hello"})
	require.NoError(t, err)
	chatID := bid.Chat.ID

	_, err = uc.SendMessage(ctx, "intruder", chatID, "let me in")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	_, err = uc.FetchMessages(ctx, "intruder", chatID, "", 10)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	err = uc.MarkAsRead(ctx, "intruder", chatID)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	chat, _ := store.GetChatByID(ctx, chatID)
	assert.Equal(t, 1, chat.UnreadCount.PostedBy)
	assert.Equal(t, 0, chat.UnreadCount.Bidder)
	assert.Equal(t, 1, store.messageCount(chatID))
}

func TestFetchMessagesPagination(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)
	ctx := context.Background()

	seedRequirement(t, store, "req-1", "evt", "p1")
	bid, err := uc.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: "req-1", Message: "msg-1"})
	require.NoError(t, err)
	chatID := bid.Chat.ID

	// Grow the history to 25 messages, alternating senders.
	for i := 2; i <= 25; i++ {
		sender, recipient := "p1", entity.SideBidder
		if i%2 == 0 {
			sender, recipient = "q1", entity.SidePoster
		}
		_, err := store.AppendMessage(ctx, chatID, &entity.Message{
			ID:       fmt.Sprintf("msg-%d", i),
			SenderID: sender,
			Text:     fmt.Sprintf("msg-%d", i),
		}, recipient)
		require.NoError(t, err)
	}

	page, err := uc.FetchMessages(ctx, "p1", chatID, "", 20)
	require.NoError(t, err)
	require.Len(t, page.Messages, 20)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, "msg-6", page.Messages[0].Text)
	assert.Equal(t, "msg-25", page.Messages[19].Text)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, page.Messages[0].ID, *page.NextCursor)

	rest, err := uc.FetchMessages(ctx, "p1", chatID, *page.NextCursor, 20)
	require.NoError(t, err)
	require.Len(t, rest.Messages, 5)
	assert.False(t, rest.HasNextPage)
	assert.Nil(t, rest.NextCursor)
	assert.Equal(t, "msg-2", rest.Messages[1].Text)
	assert.Equal(t, "msg-5", rest.Messages[4].Text)

	// Walking every page reconstructs the full history with no gaps or
	// duplicates.
	seen := make(map[string]bool)
	cursor := ""
	total := 0
	for {
		p, err := uc.FetchMessages(ctx, "p1", chatID, cursor, 7)
		require.NoError(t, err)
		for _, m := range p.Messages {
			assert.False(t, seen[m.ID], "duplicate message %s", m.ID)
			seen[m.ID] = true
			total++
		}
		if !p.HasNextPage {
			break
		}
		cursor = *p.NextCursor
	}
	assert.Equal(t, 25, total)
}

func TestFetchMessagesClampsLimitAndValidatesCursor(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)
	ctx := context.Background()

	seedRequirement(t, store, "req-1", "evt", "p1")
	bid, err := uc.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: "req-1", Message: "hello"})
	require.NoError(t, err)

	page, err := uc.FetchMessages(ctx, "p1", bid.Chat.ID, "", 500)
	require.NoError(t, err)
	assert.Equal(t, 50, page.Limit)

	page, err = uc.FetchMessages(ctx, "p1", bid.Chat.ID, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 20, page.Limit)

	_, err = uc.FetchMessages(ctx, "p1", bid.Chat.ID, "not-a-message", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestConcurrentSendsLoseNothing(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)
	ctx := context.Background()

	seedRequirement(t, store, "req-1", "evt", "p1")
	bid, err := uc.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: "req-1", Message: "hello"})
	require.NoError(t, err)
	chatID := bid.Chat.ID

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := uc.SendMessage(ctx, "p1", chatID, "from poster")
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := uc.SendMessage(ctx, "q1", chatID, "from bidder")
		assert.NoError(t, err)
	}()
	wg.Wait()

	chat, err := store.GetChatByID(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), chat.MessageSeq)
	assert.Equal(t, 3, store.messageCount(chatID))
	// One increment per direction on top of the bid's initial unread.
	assert.Equal(t, 2, chat.UnreadCount.PostedBy)
	assert.Equal(t, 1, chat.UnreadCount.Bidder)
}

func TestSendMessageValidation(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)
	ctx := context.Background()

	seedRequirement(t, store, "req-1", "evt", "p1")
	bid, err := uc.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: "req-1", Message: "hello"})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "p1", bid.Chat.ID, "   ")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = uc.SendMessage(ctx, "p1", "missing-chat", "hi")
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestSendMessageRateLimited(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)
	ctx := context.Background()

	seedRequirement(t, store, "req-1", "evt", "p1")
	bid, err := uc.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: "req-1", Message: "hello"})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := uc.SendMessage(ctx, "p1", bid.Chat.ID, "burst")
		require.NoError(t, err)
	}

	_, err = uc.SendMessage(ctx, "p1", bid.Chat.ID, "one too many")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "TOO_MANY_REQUESTS"))
}

func TestUnresolvedSenderFallsBackToPlaceholder(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)
	ctx := context.Background()

	seedRequirement(t, store, "req-1", "evt", "p1")
	bid, err := uc.SubmitBid(ctx, "ghost", SubmitBidInput{RequirementID: "req-1", Message: "boo"})
	require.NoError(t, err)

	assert.Equal(t, "Unknown User", bid.FirstMessage.Sender.Name)
	assert.Equal(t, "ghost", bid.FirstMessage.Sender.ID)
}

func TestAuthorizeMember(t *testing.T) {
	store := newMemStore()
	uc := newTestChatUseCase(store)
	ctx := context.Background()

	seedRequirement(t, store, "req-1", "evt", "p1")
	bid, err := uc.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: "req-1", Message: "hello"})
	require.NoError(t, err)

	chat, err := uc.AuthorizeMember(ctx, "p1", bid.Chat.ID)
	require.NoError(t, err)
	assert.Equal(t, bid.Chat.ID, chat.ID)

	_, err = uc.AuthorizeMember(ctx, "intruder", bid.Chat.ID)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	_, err = uc.AuthorizeMember(ctx, "p1", "missing")
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}
