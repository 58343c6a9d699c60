package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"reqwall/pkg/logger"
)

const (
	sendBufferSize = 256
	writeTimeout   = 10 * time.Second
	pingInterval   = 25 * time.Second
)

// Client is one live connection for one participant. A participant with
// several devices holds several clients under the same participant id.
type Client struct {
	ParticipantID string
	EventID       string

	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewClient(conn *websocket.Conn, participantID, eventID string) *Client {
	return &Client{
		ParticipantID: participantID,
		EventID:       eventID,
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		done:          make(chan struct{}),
	}
}

// Manager keeps the registry of personal channels (participant id ->
// connections) and chat rooms (chat id -> connections) and fans events out
// to them. Room membership is a delivery optimization only; it is never
// consulted for authorization.
type Manager struct {
	mu           sync.RWMutex
	participants map[string]map[*Client]struct{}
	rooms        map[string]map[*Client]struct{}
}

func NewManager() *Manager {
	return &Manager{
		participants: make(map[string]map[*Client]struct{}),
		rooms:        make(map[string]map[*Client]struct{}),
	}
}

// Register adds the client to its personal channel and starts its write pump.
func (m *Manager) Register(client *Client) {
	m.mu.Lock()
	if m.participants[client.ParticipantID] == nil {
		m.participants[client.ParticipantID] = make(map[*Client]struct{})
	}
	m.participants[client.ParticipantID][client] = struct{}{}
	m.mu.Unlock()

	go client.writePump()
	logger.Info("WebSocket client registered for participant %s", client.ParticipantID)
}

// Unregister drops the client from its personal channel and every room it
// joined and stops its write pump. Safe to call more than once.
func (m *Manager) Unregister(client *Client) {
	m.mu.Lock()
	if set, ok := m.participants[client.ParticipantID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(m.participants, client.ParticipantID)
		}
	}
	for chatID, room := range m.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(m.rooms, chatID)
		}
	}
	m.mu.Unlock()

	client.close()
	logger.Info("WebSocket client unregistered for participant %s", client.ParticipantID)
}

// JoinRoom admits a client to a chat room. The caller is responsible for
// authorization.
func (m *Manager) JoinRoom(chatID string, client *Client) {
	m.mu.Lock()
	if m.rooms[chatID] == nil {
		m.rooms[chatID] = make(map[*Client]struct{})
	}
	m.rooms[chatID][client] = struct{}{}
	m.mu.Unlock()
}

// LeaveRoom removes a client from a chat room. Idempotent.
func (m *Manager) LeaveRoom(chatID string, client *Client) {
	m.mu.Lock()
	if room, ok := m.rooms[chatID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(m.rooms, chatID)
		}
	}
	m.mu.Unlock()
}

// SendToParticipant pushes an event to every live connection of one
// participant. Connections that are not keeping up are skipped.
func (m *Manager) SendToParticipant(participantID string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal %s event for participant %s: %v", event.Event, participantID, err)
		return
	}

	m.mu.RLock()
	clients := make([]*Client, 0, len(m.participants[participantID]))
	for client := range m.participants[participantID] {
		clients = append(clients, client)
	}
	m.mu.RUnlock()

	for _, client := range clients {
		client.enqueue(payload)
	}
}

// SendToClient pushes an event to a single connection.
func (m *Manager) SendToClient(client *Client, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal %s event: %v", event.Event, err)
		return
	}
	client.enqueue(payload)
}

// BroadcastToRoom pushes an event to every connection currently in a chat
// room, except those of the excluded participant.
func (m *Manager) BroadcastToRoom(chatID string, event Event, exceptParticipantID string) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal %s event for room %s: %v", event.Event, chatID, err)
		return
	}

	m.mu.RLock()
	clients := make([]*Client, 0, len(m.rooms[chatID]))
	for client := range m.rooms[chatID] {
		if client.ParticipantID != exceptParticipantID {
			clients = append(clients, client)
		}
	}
	m.mu.RUnlock()

	for _, client := range clients {
		client.enqueue(payload)
	}
}

func (c *Client) enqueue(payload []byte) {
	select {
	case <-c.done:
	case c.send <- payload:
	default:
		logger.Warn("Dropping event for participant %s: send buffer full", c.ParticipantID)
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// ReadMessage blocks until the next text frame from the client.
func (c *Client) ReadMessage() ([]byte, error) {
	_, payload, err := c.conn.ReadMessage()
	return payload, err
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeTimeout))
			return

		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug("WebSocket write failed for participant %s: %v", c.ParticipantID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
