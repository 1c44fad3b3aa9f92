package badge

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

const (
	badgeKey       = "reviewbadge:badge"
	updatesChannel = "reviewbadge:updates"
)

// RedisBadge mirrors the badge into Redis so external surfaces (status bars,
// bots) can render it: the current text under a key, plus a pub/sub
// notification on every change.
type RedisBadge struct {
	client *redis.Client
}

func NewRedisBadge(client *redis.Client) *RedisBadge {
	return &RedisBadge{client: client}
}

func (b *RedisBadge) SetText(text string) {
	ctx := context.Background()
	if err := b.client.Set(ctx, badgeKey, text, 0).Err(); err != nil {
		log.Printf("Failed to SET %s: %v", badgeKey, err)
		return
	}
	if err := b.client.Publish(ctx, updatesChannel, text).Err(); err != nil {
		log.Printf("Failed to PUBLISH to %s: %v", updatesChannel, err)
	}
}

// Text reads the currently published badge text.
func (b *RedisBadge) Text(ctx context.Context) (string, error) {
	text, err := b.client.Get(ctx, badgeKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	return text, err
}
