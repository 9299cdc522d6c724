package redis

import (
	"context"
	"time"

	"github.com/frahmantamala/expense-console/internal/session"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "expense-console:session:"

// SessionRepository keeps each session in one hash whose TTL is the session
// expiry, so expired sessions vanish without a janitor.
type SessionRepository struct {
	client goredis.UniversalClient
}

func NewSessionRepository(client goredis.UniversalClient) session.RepositoryAPI {
	return &SessionRepository{client: client}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (map[string]string, error) {
	return r.client.HGetAll(ctx, key(sessionID)).Result()
}

func (r *SessionRepository) Save(ctx context.Context, sessionID string, entries map[string]string, expiresAt time.Time) error {
	k := key(sessionID)
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		values := make([]interface{}, 0, len(entries)*2)
		for field, value := range entries {
			values = append(values, field, value)
		}
		pipe.HSet(ctx, k, values...)
		pipe.ExpireAt(ctx, k, expiresAt)
		return nil
	})
	return err
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, key(sessionID)).Err()
}

// PurgeExpired is a no-op: redis expires the hashes itself.
func (r *SessionRepository) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
