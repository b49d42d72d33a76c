package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
)

// Claims mirrors the access tokens minted by the auth provider.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Verifier validates HS256 access tokens signed with the project JWT secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses tokenString and returns the identity in its subject claim.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, apperr.NotAuthenticatedMsg("verifyToken", "invalid or expired token")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperr.NotAuthenticatedMsg("verifyToken", "token subject is not a user id")
	}

	return &Identity{ID: id, Email: claims.Email}, nil
}

// Issue signs a token for id valid for ttl.
func (v *Verifier) Issue(id uuid.UUID, email string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			Audience:  jwt.ClaimStrings{"authenticated"},
		},
		Email: email,
		Role:  "authenticated",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}
