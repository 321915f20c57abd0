package document

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// UploadRateLimiter enforces a per-user fixed-window cap on the
// upload endpoint, the Redis-backed guard named in the concurrency
// model alongside the document text cache. The window opens at a
// user's first counted upload and the count resets only when its key
// expires; it is not a sliding window.
type UploadRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewUploadRateLimiter(client *redis.Client, limit int, window time.Duration) *UploadRateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &UploadRateLimiter{client: client, limit: limit, window: window}
}

func uploadRateLimitKey(userID string) string {
	return fmt.Sprintf("ratelimit:upload:%s", userID)
}

// Allow increments userID's counter for the current window, creating
// it with the window's TTL on first use, and reports whether the
// caller is still under the cap.
func (l *UploadRateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	key := uploadRateLimitKey(userID)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("incr rate limit counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("set rate limit ttl: %w", err)
		}
	}
	return count <= int64(l.limit), nil
}
