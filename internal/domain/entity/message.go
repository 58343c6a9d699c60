package entity

import "time"

type Attachment struct {
	Type string `json:"type" firestore:"type"` // "image" or "pdf"
	URL  string `json:"url" firestore:"url"`
}

// Message is an immutable entry in a chat's timeline. Seq is a strictly
// increasing per-chat sequence number assigned when the message is
// appended; pagination cursors compare on it so that timestamp collisions
// cannot duplicate or drop rows.
type Message struct {
	ID          string       `json:"id" firestore:"id"`
	ChatID      string       `json:"chat_id" firestore:"chatId"`
	SenderID    string       `json:"sender_id" firestore:"senderId"`
	Text        string       `json:"text,omitempty" firestore:"text,omitempty"`
	Attachments []Attachment `json:"attachments" firestore:"attachments"`
	Seq         int64        `json:"-" firestore:"seq"`
	CreatedAt   time.Time    `json:"created_at" firestore:"createdAt"`
}
