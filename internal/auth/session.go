package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultSessionTTL = 24 * 7 * time.Hour
	sessionKeyPrefix  = "blog-service-session||"
)

var _ Verifier = (*SessionVerifier)(nil)

// SessionVerifier checks opaque session tokens stored in redis under
// sessionKeyPrefix+token, with a value of "<createdAtUnix>|<username>".
type SessionVerifier struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewSessionVerifier(ttl time.Duration, redisClient *redis.Client) *SessionVerifier {
	return &SessionVerifier{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func SessionKey(token string) string {
	return sessionKeyPrefix + token
}

func SessionValue(createdAt time.Time, username string) string {
	return fmt.Sprintf("%d|%s", createdAt.Unix(), username)
}

func (v *SessionVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	sessionVal, err := v.redisClient.Get(ctx, SessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return Identity{}, fmt.Errorf("%w: session not found", ErrUnauthenticated)
	}
	if err != nil {
		return Identity{}, fmt.Errorf("get session: %w", err)
	}

	createdAtUnixStr, username, found := strings.Cut(sessionVal, "|")
	if !found || username == "" {
		return Identity{}, fmt.Errorf("%w: malformed session", ErrUnauthenticated)
	}

	createdAtUnix, err := strconv.ParseInt(createdAtUnixStr, 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: malformed session timestamp: %w", ErrUnauthenticated, err)
	}

	// logged out sessions are kept with a zero timestamp
	if createdAtUnix <= 0 {
		return Identity{}, fmt.Errorf("%w: session logged out", ErrUnauthenticated)
	}

	if time.Since(time.Unix(createdAtUnix, 0)) > v.ttl {
		return Identity{}, fmt.Errorf("%w: session expired", ErrUnauthenticated)
	}

	return Identity{Username: username}, nil
}
