package state

import (
	"context"
	"errors"
	"fmt"

	"asindir/client/internal/taxonomy"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "asindir:selection:"

// SelectionStore remembers the taxonomy cursor of a session between CLI runs.
type SelectionStore interface {
	LoadSelection(ctx context.Context, session string) (taxonomy.Selection, error)
	SaveSelection(ctx context.Context, session string, sel taxonomy.Selection) error
}

type redisSelectionStore struct {
	redisClient *redis.Client
}

func NewRedisSelectionStore(redisClient *redis.Client) SelectionStore {
	return &redisSelectionStore{redisClient: redisClient}
}

const (
	fieldCategory = "category_id"
	fieldRange    = "range_id"
	fieldProduct  = "product_id"
)

func (s *redisSelectionStore) LoadSelection(ctx context.Context, session string) (taxonomy.Selection, error) {
	key := keyPrefix + session
	vals, err := s.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return taxonomy.Idle{}, nil
		}
		return nil, fmt.Errorf("failed to load selection for session %s: %w", session, err)
	}

	// A missing key comes back as an empty map
	return taxonomy.FromCursor(vals[fieldCategory], vals[fieldRange], vals[fieldProduct]), nil
}

func (s *redisSelectionStore) SaveSelection(ctx context.Context, session string, sel taxonomy.Selection) error {
	key := keyPrefix + session
	categoryID, rangeID, productID := taxonomy.Cursor(sel)

	if categoryID == "" {
		if err := s.redisClient.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to clear selection for session %s: %w", session, err)
		}
		return nil
	}

	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fieldCategory, categoryID, fieldRange, rangeID, fieldProduct, productID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save selection for session %s: %w", session, err)
	}
	return nil
}

// MemorySelectionStore keeps selections in process. It stands in when Redis
// is disabled, so a selection only lives for one command.
type MemorySelectionStore struct {
	selections map[string]taxonomy.Selection
}

func NewMemorySelectionStore() *MemorySelectionStore {
	return &MemorySelectionStore{selections: make(map[string]taxonomy.Selection)}
}

func (s *MemorySelectionStore) LoadSelection(_ context.Context, session string) (taxonomy.Selection, error) {
	if sel, ok := s.selections[session]; ok {
		return sel, nil
	}
	return taxonomy.Idle{}, nil
}

func (s *MemorySelectionStore) SaveSelection(_ context.Context, session string, sel taxonomy.Selection) error {
	s.selections[session] = sel
	return nil
}
