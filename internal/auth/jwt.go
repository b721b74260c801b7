package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the claims in our JWT token
type Claims struct {
	ClientID string `json:"client_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

const clientRole = "client"

// Authenticator issues and validates connection tokens.
type Authenticator struct {
	secret []byte
}

// New creates an authenticator with the given signing secret. An empty
// secret disables authentication entirely; Enabled reports this.
func New(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Enabled reports whether token checks are active.
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// GenerateClientToken generates a JWT token for a connecting client
func (a *Authenticator) GenerateClientToken(clientID string) (string, error) {
	claims := &Claims{
		ClientID: clientID,
		Role:     clientRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken validates a JWT token and returns the claims
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}
