// internal/utils/jwt.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const RoleAdmin = "admin"

type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

// JWTClaims are the claims of an access token issued by the auth provider.
// The user id is the subject.
type JWTClaims struct {
	Email       string      `json:"email,omitempty"`
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

func (c *JWTClaims) IsAdmin() bool {
	return c.AppMetadata.Role == RoleAdmin
}

var jwtSecret = []byte("your-secret-key-change-in-production")

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateJWT signs a token the way the auth provider does. The service only
// validates tokens; this is used by tooling and tests.
func GenerateJWT(userID uuid.UUID, email, role string, ttl time.Duration) (string, error) {
	claims := JWTClaims{
		Email:       email,
		AppMetadata: AppMetadata{Role: role},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateJWT(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if _, err := claims.UserID(); err != nil {
		return nil, errors.New("invalid subject")
	}

	return claims, nil
}
