package websocket

// Client-to-server event names.
const (
	EventJoinChat    = "join-chat"
	EventLeaveChat   = "leave-chat"
	EventSendMessage = "send-message"
	EventMarkAsRead  = "mark-as-read"
)

// Server-to-client event names.
const (
	EventChatJoined         = "chat-joined"
	EventChatLeft           = "chat-left"
	EventNewMessage         = "new-message"
	EventUnreadCountUpdated = "unread-count-updated"
	EventMessageSent        = "message-sent"
	EventMarkedAsRead       = "marked-as-read"
	EventError              = "error"
)

// Event is the wire frame for both directions of the socket protocol.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type ChatRef struct {
	ChatID string `json:"chatId"`
}

type SendMessagePayload struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

type NewMessagePayload struct {
	ChatID  string      `json:"chatId"`
	Message interface{} `json:"message"`
}

type UnreadCountPayload struct {
	ChatID        string `json:"chatId"`
	PostedByCount int    `json:"postedByCount"`
	BidderCount   int    `json:"bidderCount"`
}

type MessageSentPayload struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
