package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatMembership(t *testing.T) {
	chat := &Chat{
		PostedBy:    "p1",
		BidderID:    "q1",
		UnreadCount: UnreadCount{PostedBy: 2, Bidder: 1},
	}

	assert.True(t, chat.IsMember("p1"))
	assert.True(t, chat.IsMember("q1"))
	assert.False(t, chat.IsMember("x"))

	assert.Equal(t, SidePoster, chat.SideOf("p1"))
	assert.Equal(t, SideBidder, chat.SideOf("q1"))

	assert.Equal(t, "q1", chat.OtherMember("p1"))
	assert.Equal(t, "p1", chat.OtherMember("q1"))

	assert.Equal(t, 2, chat.UnreadFor("p1"))
	assert.Equal(t, 1, chat.UnreadFor("q1"))
}
