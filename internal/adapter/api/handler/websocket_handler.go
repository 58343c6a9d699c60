package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"reqwall/internal/adapter/api/middleware"
	ws "reqwall/internal/infrastructure/websocket"
	"reqwall/internal/usecase"
	"reqwall/pkg/errors"
	"reqwall/pkg/logger"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	chatUseCase    *usecase.ChatUseCase
	authMiddleware *middleware.AuthMiddleware
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Restrict in production
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, chatUseCase *usecase.ChatUseCase, authMiddleware *middleware.AuthMiddleware) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		chatUseCase:    chatUseCase,
		authMiddleware: authMiddleware,
	}
}

// HandleWebSocket authenticates the handshake before upgrading: bad or
// stale credentials are rejected with a plain HTTP error, never a
// half-open socket.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := handshakeToken(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	identity, err := h.authMiddleware.ResolveToken(c.Request().Context(), token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := ws.NewClient(conn, identity.ParticipantID, identity.EventID)
	h.wsManager.Register(client)

	go h.readLoop(client)

	return nil
}

// handshakeToken accepts the credential either as a ?token query parameter
// (browser WebSocket clients cannot set headers) or a Bearer header.
func handshakeToken(c echo.Context) string {
	if token := c.QueryParam("token"); token != "" {
		return token
	}

	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func (h *WebSocketHandler) readLoop(client *ws.Client) {
	defer h.wsManager.Unregister(client)

	for {
		payload, err := client.ReadMessage()
		if err != nil {
			if gorillaws.IsUnexpectedCloseError(err, gorillaws.CloseGoingAway, gorillaws.CloseNormalClosure) {
				logger.Debug("WebSocket read error for participant %s: %v", client.ParticipantID, err)
			}
			return
		}

		var event ws.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			h.sendError(client, "Malformed event")
			continue
		}

		h.dispatch(client, event)
	}
}

// dispatch routes one client event. Operation failures come back as error
// events on the same connection; they never terminate it.
func (h *WebSocketHandler) dispatch(client *ws.Client, event ws.Event) {
	ctx := context.Background()

	switch event.Event {
	case ws.EventJoinChat:
		ref, ok := decodeChatRef(event.Data)
		if !ok {
			h.sendError(client, "chatId is required")
			return
		}
		if _, err := h.chatUseCase.AuthorizeMember(ctx, client.ParticipantID, ref.ChatID); err != nil {
			h.sendError(client, errorMessage(err))
			return
		}
		h.wsManager.JoinRoom(ref.ChatID, client)
		h.wsManager.SendToClient(client, ws.Event{
			Event: ws.EventChatJoined,
			Data:  ws.ChatRef{ChatID: ref.ChatID},
		})

	case ws.EventLeaveChat:
		ref, ok := decodeChatRef(event.Data)
		if !ok {
			h.sendError(client, "chatId is required")
			return
		}
		h.wsManager.LeaveRoom(ref.ChatID, client)
		h.wsManager.SendToClient(client, ws.Event{
			Event: ws.EventChatLeft,
			Data:  ws.ChatRef{ChatID: ref.ChatID},
		})

	case ws.EventSendMessage:
		var payload ws.SendMessagePayload
		if !decodeInto(event.Data, &payload) || payload.ChatID == "" {
			h.sendError(client, "chatId and message are required")
			return
		}
		message, err := h.chatUseCase.SendMessage(ctx, client.ParticipantID, payload.ChatID, payload.Message)
		if err != nil {
			h.sendError(client, errorMessage(err))
			return
		}
		h.wsManager.SendToClient(client, ws.Event{
			Event: ws.EventMessageSent,
			Data:  ws.MessageSentPayload{ChatID: payload.ChatID, MessageID: message.ID},
		})

	case ws.EventMarkAsRead:
		ref, ok := decodeChatRef(event.Data)
		if !ok {
			h.sendError(client, "chatId is required")
			return
		}
		if err := h.chatUseCase.MarkAsRead(ctx, client.ParticipantID, ref.ChatID); err != nil {
			h.sendError(client, errorMessage(err))
			return
		}
		h.wsManager.SendToClient(client, ws.Event{
			Event: ws.EventMarkedAsRead,
			Data:  ws.ChatRef{ChatID: ref.ChatID},
		})

	default:
		h.sendError(client, "Unknown event: "+event.Event)
	}
}

func (h *WebSocketHandler) sendError(client *ws.Client, message string) {
	h.wsManager.SendToClient(client, ws.Event{
		Event: ws.EventError,
		Data:  ws.ErrorPayload{Message: message},
	})
}

func errorMessage(err error) string {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr.Message
	}
	return "Something went wrong"
}

func decodeChatRef(data interface{}) (ws.ChatRef, bool) {
	var ref ws.ChatRef
	if !decodeInto(data, &ref) || ref.ChatID == "" {
		return ws.ChatRef{}, false
	}
	return ref, true
}

// decodeInto re-marshals the loosely typed event data into a concrete
// payload struct.
func decodeInto(data interface{}, target interface{}) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}
