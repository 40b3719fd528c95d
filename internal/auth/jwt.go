package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var _ Verifier = (*JWTVerifier)(nil)

type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
	}
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, fmt.Errorf("%w: jwt secret not configured", ErrUnauthenticated)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return Identity{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("%w: unexpected claims type", ErrUnauthenticated)
	}

	username, _ := claims["username"].(string)
	if username == "" {
		username, _ = claims.GetSubject()
	}
	if username == "" {
		return Identity{}, fmt.Errorf("%w: username claim missing", ErrUnauthenticated)
	}

	return Identity{Username: username}, nil
}

// NewJWT signs a HS256 token carrying the username claim. Used by tests and
// local tooling; issuing tokens to end users is not this service's job.
func NewJWT(secret, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"sub":      username,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}
