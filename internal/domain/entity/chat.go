package entity

import "time"

// ChatSide identifies which member of a chat a counter or action belongs to.
type ChatSide string

const (
	SidePoster ChatSide = "postedBy"
	SideBidder ChatSide = "bidder"
)

type UnreadCount struct {
	PostedBy int `json:"posted_by" firestore:"postedBy"`
	Bidder   int `json:"bidder" firestore:"bidder"`
}

// Chat is the 1:1 conversation between a requirement's poster and one
// bidder. Exactly one chat exists per (requirementId, bidderId) pair.
type Chat struct {
	ID            string      `json:"id" firestore:"id"`
	RequirementID string      `json:"requirement_id" firestore:"requirementId"`
	PostedBy      string      `json:"posted_by" firestore:"postedBy"`
	BidderID      string      `json:"bidder_id" firestore:"bidderId"`
	LastActivity  time.Time   `json:"last_activity" firestore:"lastActivity"`
	UnreadCount   UnreadCount `json:"unread_count" firestore:"unreadCount"`
	MessageSeq    int64       `json:"-" firestore:"messageSeq"`
	CreatedAt     time.Time   `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time   `json:"updated_at" firestore:"updatedAt"`
}

// IsMember reports whether the participant is the poster or the bidder.
func (c *Chat) IsMember(participantID string) bool {
	return participantID == c.PostedBy || participantID == c.BidderID
}

// SideOf returns which side of the chat the participant is on. The caller
// must have checked membership first.
func (c *Chat) SideOf(participantID string) ChatSide {
	if participantID == c.PostedBy {
		return SidePoster
	}
	return SideBidder
}

// OtherMember returns the id of the member opposite the given participant.
func (c *Chat) OtherMember(participantID string) string {
	if participantID == c.PostedBy {
		return c.BidderID
	}
	return c.PostedBy
}

// UnreadFor returns the unread counter for the participant's own side.
func (c *Chat) UnreadFor(participantID string) int {
	if c.SideOf(participantID) == SidePoster {
		return c.UnreadCount.PostedBy
	}
	return c.UnreadCount.Bidder
}
