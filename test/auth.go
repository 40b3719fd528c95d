//go:build integration_test || all_tests

package test

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/2beens/blogservice/internal/auth"
)

// newSession stores a session for username the way the session issuer does,
// and returns its token.
func newSession(ctx context.Context, t *testing.T, rdb *redis.Client, username string) string {
	t.Helper()
	token := uuid.NewString()
	require.NoError(t,
		rdb.Set(ctx, auth.SessionKey(token), auth.SessionValue(time.Now(), username), 0).Err(),
	)
	return token
}

func logout(ctx context.Context, t *testing.T, rdb *redis.Client, token string) {
	t.Helper()
	require.NoError(t, rdb.Del(ctx, auth.SessionKey(token)).Err())
}
