package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// TokenClaims carries the identity a verified token asserts. EventUserID and
// EventID come from custom claims stamped onto the token at sign-in.
type TokenClaims struct {
	UID         string
	EventUserID string
	EventID     string
}

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (*TokenClaims, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}

	claims := &TokenClaims{UID: result.UID}
	if v, ok := result.Claims["eventUserId"].(string); ok {
		claims.EventUserID = v
	}
	if v, ok := result.Claims["eventId"].(string); ok {
		claims.EventID = v
	}

	return claims, nil
}

func (f *FirebaseAuthClient) GenerateToken(ctx context.Context, uid string, devClaims map[string]interface{}) (string, error) {
	token, err := f.client.CustomTokenWithClaims(ctx, uid, devClaims)
	if err != nil {
		return "", err
	}

	return token, nil
}
