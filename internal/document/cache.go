package document

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTextCacheTTL = time.Hour

// TextCache is the Redis-backed v1 full-text cache: extraction output
// is cached for an hour so repeated chat turns referencing the same
// attachment don't re-read object storage, matching file_ingest.py's
// `_cache_pages`/document_service.py's `doc:text:{id}` scheme.
type TextCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTextCache(client *redis.Client) *TextCache {
	return &TextCache{client: client, ttl: defaultTextCacheTTL}
}

func cacheKey(documentID string) string {
	return fmt.Sprintf("doc:text:%s", documentID)
}

func (c *TextCache) Set(ctx context.Context, documentID string, pages []PageContent) error {
	return c.client.Set(ctx, cacheKey(documentID), JoinPages(pages), c.ttl).Err()
}

// Get returns the cached text and whether it was present. A miss is
// not an error — callers (the chat pipeline's document-context fallback) treat an
// expired cache as "document content no longer available" and surface
// that to the user rather than failing the request.
func (c *TextCache) Get(ctx context.Context, documentID string) (string, bool, error) {
	text, err := c.client.Get(ctx, cacheKey(documentID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get cached text: %w", err)
	}
	return text, true, nil
}
