package cache

import (
	"context"
	"encoding/json"
	"fmt"

	redisv9 "github.com/redis/go-redis/v9"

	"carely/internal/model"
)

// ConversationStore keeps each tenant's recent support exchanges in a redis
// list, newest at the head. The trim runs inside Append so the bound can
// never drift from the data.
type ConversationStore struct {
	client *redisv9.Client
}

func NewConversationStore(client *redisv9.Client) *ConversationStore {
	return &ConversationStore{client: client}
}

// Append pushes the exchange and trims the list down to keep entries.
func (s *ConversationStore) Append(ctx context.Context, companyID uint, ex model.Exchange, keep int) error {
	if keep <= 0 {
		keep = 1
	}
	payload, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("marshal exchange failed: %w", err)
	}

	key := s.historyKey(companyID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(keep-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append exchange failed: %w", err)
	}
	return nil
}

// Recent returns up to n exchanges in chronological order, oldest first.
func (s *ConversationStore) Recent(ctx context.Context, companyID uint, n int) ([]model.Exchange, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, s.historyKey(companyID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read history failed: %w", err)
	}

	// LRange returns newest first; reverse into chronological order.
	exchanges := make([]model.Exchange, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var ex model.Exchange
		if err := json.Unmarshal([]byte(raw[i]), &ex); err != nil {
			return nil, fmt.Errorf("unmarshal exchange failed: %w", err)
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, nil
}

func (s *ConversationStore) Clear(ctx context.Context, companyID uint) error {
	if err := s.client.Del(ctx, s.historyKey(companyID)).Err(); err != nil {
		return fmt.Errorf("redis clear history failed: %w", err)
	}
	return nil
}

func (s *ConversationStore) historyKey(companyID uint) string {
	return fmt.Sprintf("support:history:%d", companyID)
}
