package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SavedQuote is a persisted comparison a seller can reopen later.
type SavedQuote struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Request   CompareRequest `json:"request"`
	Result    CompareResult  `json:"result"`
}

// Store persists quotes in Redis with a TTL. Quotes are working documents,
// not orders, so expiry is acceptable.
type Store struct {
	Client *redis.Client
	TTL    time.Duration
}

func quoteKey(id string) string {
	return "quote:" + id
}

// Save assigns an id and persists the quote.
func (s *Store) Save(ctx context.Context, req CompareRequest, result CompareResult) (SavedQuote, error) {
	if s == nil || s.Client == nil {
		return SavedQuote{}, errors.New("quote: store not configured")
	}
	saved := SavedQuote{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Request:   req,
		Result:    result,
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return SavedQuote{}, fmt.Errorf("quote: marshal: %w", err)
	}
	if err := s.Client.Set(ctx, quoteKey(saved.ID), data, s.TTL).Err(); err != nil {
		return SavedQuote{}, fmt.Errorf("quote: persist: %w", err)
	}
	return saved, nil
}

// Get fetches a saved quote. The boolean reports whether it existed.
func (s *Store) Get(ctx context.Context, id string) (SavedQuote, bool, error) {
	if s == nil || s.Client == nil {
		return SavedQuote{}, false, errors.New("quote: store not configured")
	}
	data, err := s.Client.Get(ctx, quoteKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return SavedQuote{}, false, nil
		}
		return SavedQuote{}, false, fmt.Errorf("quote: fetch: %w", err)
	}
	var saved SavedQuote
	if err := json.Unmarshal(data, &saved); err != nil {
		return SavedQuote{}, false, fmt.Errorf("quote: decode: %w", err)
	}
	return saved, true, nil
}
