package refresh

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix = "rt"
	userKeyPrefix  = "rtu"
)

var _ Repo = (*RedisRepo)(nil)

// RedisRepo stores refresh tokens as Redis keys with a server-side TTL, so
// the expiry sweep is performed by Redis itself. Both the token key and the
// per-user reverse index share the same TTL.
type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepo(client *redis.Client, ttl time.Duration) *RedisRepo {
	return &RedisRepo{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisRepo) tokenKey(token string) string {
	return tokenKeyPrefix + ":" + token
}

func (r *RedisRepo) userKey(userID string) string {
	return userKeyPrefix + ":" + userID
}

func (r *RedisRepo) Upsert(ctx context.Context, refreshToken *StoredRefreshToken) error {
	payload := encodeRecord(refreshToken)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.tokenKey(refreshToken.Token), payload, r.ttl)
	pipe.Set(ctx, r.userKey(refreshToken.UserID), refreshToken.Token, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "[RedisRepo.Upsert] Exec")
	}
	return nil
}

func (r *RedisRepo) Get(ctx context.Context, token string) (*StoredRefreshToken, error) {
	payload, err := r.client.Get(ctx, r.tokenKey(token)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.Get] Get")
	}

	userID, issuedAt, err := decodeRecord(payload)
	if err != nil {
		return nil, err
	}
	return &StoredRefreshToken{
		Token:    token,
		UserID:   userID,
		IssuedAt: issuedAt,
	}, nil
}

func (r *RedisRepo) GetByUserID(ctx context.Context, userID string) (*StoredRefreshToken, error) {
	token, err := r.client.Get(ctx, r.userKey(userID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.GetByUserID] Get")
	}
	return r.Get(ctx, token)
}

func (r *RedisRepo) Delete(ctx context.Context, token string) error {
	payload, err := r.client.Get(ctx, r.tokenKey(token)).Result()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "[RedisRepo.Delete] Get")
	}

	userID, _, err := decodeRecord(payload)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.tokenKey(token))
	pipe.Del(ctx, r.userKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "[RedisRepo.Delete] Exec")
	}
	return nil
}

// Records are encoded as "userID|issuedAtMillis". Timestamps are stored as
// millisecond UTC to survive the round trip without driver surprises.
func encodeRecord(rt *StoredRefreshToken) string {
	return rt.UserID + "|" + strconv.FormatInt(rt.IssuedAt.UTC().UnixMilli(), 10)
}

func decodeRecord(payload string) (userID string, issuedAt time.Time, err error) {
	parts := strings.SplitN(payload, "|", 2)
	if len(parts) != 2 {
		return "", time.Time{}, errors.New("[decodeRecord] corrupt refresh token record")
	}
	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "[decodeRecord] issued at")
	}
	return parts[0], time.UnixMilli(millis).UTC(), nil
}
