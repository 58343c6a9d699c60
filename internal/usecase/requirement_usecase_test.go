package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reqwall/pkg/errors"
)

func newTestRequirementUseCase(store *memStore) *RequirementUseCase {
	return NewRequirementUseCase(fakeRequirementRepo{store}, fakeChatRepo{store}, fakeParticipantRepo{store})
}

func TestCreateRequirementValidatesInput(t *testing.T) {
	store := newMemStore()
	uc := newTestRequirementUseCase(store)
	ctx := context.Background()

	_, err := uc.Create(ctx, "p1", "evt", CreateRequirementInput{Title: "  ", Description: "something"})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = uc.Create(ctx, "p1", "evt", CreateRequirementInput{Title: "Need a logo", Description: ""})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	requirement, err := uc.Create(ctx, "p1", "evt", CreateRequirementInput{
		Title:       "  Need a logo  ",
		Description: "Looking for a designer",
		Budget:      500,
		Currency:    "INR",
	})
	require.NoError(t, err)
	assert.Equal(t, "Need a logo", requirement.Title)
	assert.Equal(t, "p1", requirement.PostedBy)
	assert.Equal(t, "evt", requirement.EventID)
	assert.NotEmpty(t, requirement.ID)
}

func TestListFiltersByTypeAndSearch(t *testing.T) {
	store := newMemStore()
	chatUC := newTestChatUseCase(store)
	uc := newTestRequirementUseCase(store)
	ctx := context.Background()

	store.addParticipant("p1", "evt", "Priya", "priya.png")
	store.addParticipant("q1", "evt", "Quentin", "quentin.png")

	first, err := uc.Create(ctx, "p1", "evt", CreateRequirementInput{Title: "Need a logo", Description: "designer wanted"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, "q1", "evt", CreateRequirementInput{Title: "Photographer", Description: "event shots"})
	require.NoError(t, err)

	_, err = chatUC.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: first.ID, Message: "interested"})
	require.NoError(t, err)

	items, pageInfo, err := uc.List(ctx, "p1", "evt", "all", "", 1, 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int64(2), pageInfo.Total)

	items, _, err = uc.List(ctx, "p1", "evt", "postedByMe", "", 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].Requirement.ID)
	assert.True(t, items[0].IsUserPosted)
	assert.Equal(t, 1, items[0].MembersCount)
	assert.Equal(t, []string{"quentin.png"}, items[0].BidderProfileImages)

	// Search matches title, description and poster name, case-insensitively.
	items, _, err = uc.List(ctx, "q1", "evt", "all", "LOGO", 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].Requirement.ID)
	assert.False(t, items[0].IsUserPosted)

	items, _, err = uc.List(ctx, "q1", "evt", "all", "priya", 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].Requirement.ID)

	items, _, err = uc.List(ctx, "q1", "evt", "all", "no such thing", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetByIDShowsResponsesToPosterOnly(t *testing.T) {
	store := newMemStore()
	chatUC := newTestChatUseCase(store)
	uc := newTestRequirementUseCase(store)
	ctx := context.Background()

	store.addParticipant("p1", "evt", "Priya", "")
	store.addParticipant("q1", "evt", "Quentin", "")
	store.addParticipant("q2", "evt", "Rita", "")

	requirement, err := uc.Create(ctx, "p1", "evt", CreateRequirementInput{Title: "Need a logo", Description: "designer wanted"})
	require.NoError(t, err)

	bid1, err := chatUC.SubmitBid(ctx, "q1", SubmitBidInput{RequirementID: requirement.ID, Message: "me"})
	require.NoError(t, err)
	_, err = chatUC.SubmitBid(ctx, "q2", SubmitBidInput{RequirementID: requirement.ID, Message: "me too"})
	require.NoError(t, err)

	posterView, err := uc.GetByID(ctx, "p1", requirement.ID)
	require.NoError(t, err)
	assert.True(t, posterView.IsUserPosted)
	assert.Len(t, posterView.Responses, 2)
	assert.Nil(t, posterView.MyResponse)
	assert.Equal(t, 2, posterView.Requirement.BiddersCount)

	bidderView, err := uc.GetByID(ctx, "q1", requirement.ID)
	require.NoError(t, err)
	assert.False(t, bidderView.IsUserPosted)
	assert.Empty(t, bidderView.Responses)
	require.NotNil(t, bidderView.MyResponse)
	assert.Equal(t, bid1.Chat.ID, bidderView.MyResponse.ChatID)
	assert.Equal(t, "Quentin", bidderView.MyResponse.Bidder.Name)

	// A participant with no bid sees neither list.
	strangerView, err := uc.GetByID(ctx, "q3", requirement.ID)
	require.NoError(t, err)
	assert.Nil(t, strangerView.MyResponse)
	assert.Empty(t, strangerView.Responses)

	_, err = uc.GetByID(ctx, "p1", "missing")
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}
