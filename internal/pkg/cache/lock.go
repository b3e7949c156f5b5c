package cache

import (
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AcquireLock takes an advisory lock via SET NX. It returns a release token
// when the lock was taken, or an empty string when another holder owns it.
// The TTL guards against holders that die without releasing.
func AcquireLock(key string, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	ok, err := GetClient().SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// releaseScript deletes the lock only while it still holds the caller's
// token. Check and delete run as one script, so a lock that expired and was
// re-acquired in between is never deleted from under its new holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// ReleaseLock releases an advisory lock, but only for the holder that took
// it: a lock whose value no longer matches the token is left alone.
func ReleaseLock(key, token string) error {
	return releaseScript.Run(ctx, GetClient(), []string{key}, token).Err()
}
