package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
)

// Store is the subset of the Redis client used for deduplication
type Store interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Deduplicator suppresses opportunities already published within a TTL
type Deduplicator struct {
	store Store
	ttl   time.Duration
}

// NewDeduplicator creates a new deduplicator
func NewDeduplicator(store Store, ttl time.Duration) *Deduplicator {
	return &Deduplicator{
		store: store,
		ttl:   ttl,
	}
}

// ShouldPublish returns true the first time an opportunity's key is seen within the TTL.
// SETNX makes the check and the claim a single step.
func (d *Deduplicator) ShouldPublish(ctx context.Context, opp models.Opportunity) (bool, error) {
	claimed, err := d.store.SetNX(ctx, Key(opp), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim dedup key: %w", err)
	}
	return claimed, nil
}

// Clear removes a dedup entry
func (d *Deduplicator) Clear(ctx context.Context, opp models.Opportunity) error {
	return d.store.Del(ctx, Key(opp)).Err()
}

// leg is one provider/runner pair of an opportunity's dedup signature
type leg struct {
	Provider string `json:"p"`
	Runner   string `json:"r"`
}

// Key builds arb:dedup:{event_id}:{market}:{legs_hash}. The legs hash covers the
// sorted provider/runner pairs, so a price move on the same legs is not republished.
func Key(opp models.Opportunity) string {
	legs := make([]leg, 0, len(opp.Stakes))
	for _, s := range opp.Stakes {
		legs = append(legs, leg{Provider: s.ProviderID, Runner: s.OutcomeName})
	}
	sort.Slice(legs, func(i, j int) bool {
		if legs[i].Provider != legs[j].Provider {
			return legs[i].Provider < legs[j].Provider
		}
		return legs[i].Runner < legs[j].Runner
	})

	// Marshalling a slice of string structs cannot fail
	encoded, _ := json.Marshal(legs)
	hash := sha256.Sum256(encoded)
	return fmt.Sprintf("arb:dedup:%s:%s:%x", opp.EventID, strings.ToLower(opp.MarketName), hash[:8])
}
