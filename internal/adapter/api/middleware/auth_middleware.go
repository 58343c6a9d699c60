package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"reqwall/internal/domain/repository"
	"reqwall/internal/infrastructure/firebase"
	"reqwall/pkg/errors"
	"reqwall/pkg/response"
)

// Identity is the authenticated event-scoped caller, stored on the Echo
// context under the "identity" key.
type Identity struct {
	ParticipantID string
	EventID       string
}

type AuthMiddleware struct {
	authClient      *firebase.FirebaseAuthClient
	participantRepo repository.ParticipantRepository
}

func NewAuthMiddleware(authClient *firebase.FirebaseAuthClient, participantRepo repository.ParticipantRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authClient:      authClient,
		participantRepo: participantRepo,
	}
}

// Authenticate verifies the Bearer token and resolves it to a live event
// participant. Requests whose token claims a participant that no longer
// exists, or one belonging to a different event, are rejected.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		identity, err := m.ResolveToken(c.Request().Context(), parts[1])
		if err != nil {
			return response.Error(c, err)
		}

		c.Set("identity", identity)
		return next(c)
	}
}

// ResolveToken verifies a raw ID token and checks that the participant it
// claims still exists in the claimed event. Shared by the HTTP middleware
// and the WebSocket handshake.
func (m *AuthMiddleware) ResolveToken(ctx context.Context, token string) (*Identity, error) {
	claims, err := m.authClient.VerifyToken(ctx, token)
	if err != nil {
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}
	if claims.EventUserID == "" || claims.EventID == "" {
		return nil, errors.Unauthorized("Token is missing event identity", nil)
	}

	participant, err := m.participantRepo.GetByID(ctx, claims.EventUserID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, errors.Unauthorized("Participant no longer exists", nil)
		}
		return nil, err
	}
	if participant.EventID != claims.EventID {
		return nil, errors.Forbidden("Participant does not belong to this event", nil)
	}

	return &Identity{
		ParticipantID: participant.ID,
		EventID:       participant.EventID,
	}, nil
}

// IdentityFrom pulls the authenticated identity off the context. Handlers
// behind Authenticate can rely on it being present.
func IdentityFrom(c echo.Context) *Identity {
	identity, _ := c.Get("identity").(*Identity)
	return identity
}
