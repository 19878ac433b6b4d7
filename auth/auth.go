// Package auth verifies bearer credentials and resolves the caller's identity.
//
// Credentials are HS256 JSON web tokens issued by the sign in service. The token's
// userId claim names the user, their role is always read from the user directory.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kscout/runboard-api/models"
	"github.com/kscout/runboard-api/store"

	"github.com/dgrijalva/jwt-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoCredentials indicates a request carried no bearer token
var ErrNoCredentials = errors.New("no bearer token provided")

// CredentialError indicates a bearer token was rejected
type CredentialError struct {
	// Reason the token was rejected
	Reason string
}

// Error implements error
func (e CredentialError) Error() string {
	return fmt.Sprintf("invalid token: %s", e.Reason)
}

// Claims are the token claims the API understands
type Claims struct {
	jwt.StandardClaims

	// UserID is the hex ID of the user
	UserID string `json:"userId"`
}

// Verifier checks bearer tokens
type Verifier struct {
	// Secret is the HMAC key tokens are signed with
	Secret []byte

	// Users is the user directory
	Users store.UserDirectory
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrNoCredentials
	}

	token := strings.TrimSpace(parts[1])
	if len(token) == 0 {
		return "", ErrNoCredentials
	}

	return token, nil
}

// Verify checks a token's signature and expiry and returns the actor it names.
// Returns a CredentialError if the token is rejected or its user no longer exists.
func (v Verifier) Verify(ctx context.Context, token string) (models.Actor, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %s", t.Header["alg"])
		}

		return v.Secret, nil
	})
	if err != nil {
		return models.Actor{}, CredentialError{Reason: err.Error()}
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.Actor{}, CredentialError{Reason: "malformed userId claim"}
	}

	user, err := v.Users.FindUserByID(ctx, id)
	if err != nil {
		return models.Actor{}, models.RetrievalError{Op: "find user", Err: err}
	}

	if user == nil {
		return models.Actor{}, CredentialError{Reason: "user not found"}
	}

	return user.Actor(), nil
}

// Issue signs a token for user which expires after ttl. Used by the CLI to hand
// out tokens for seeded users.
func (v Verifier) Issue(user models.User, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
			Subject:   user.Email,
		},
		UserID: user.ID.Hex(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %s", err.Error())
	}

	return token, nil
}
