package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// dedupTTL keeps marks long enough to survive the day they guard and short
// enough that keys never accumulate.
const dedupTTL = 24 * time.Hour

// Dedup suppresses duplicate dispatches across worker restarts and
// overlapping scans. A mark is claimed atomically; the first claimant wins.
type Dedup struct {
	client *redis.Client
}

func NewDedup(client *redis.Client) *Dedup {
	return &Dedup{client: client}
}

// ClaimReminder marks one (assignment, scheduled time) pair. Returns true
// when this caller is the first to claim it.
func (d *Dedup) ClaimReminder(ctx context.Context, assignmentID uuid.UUID, actionAt time.Time) (bool, error) {
	key := fmt.Sprintf("leadhub:reminder:%s:%d", assignmentID, actionAt.Unix())
	return d.claim(ctx, key)
}

// ClaimDigest marks one (merchant, slot, day) triple.
func (d *Dedup) ClaimDigest(ctx context.Context, merchantID uuid.UUID, slot string, day time.Time) (bool, error) {
	key := fmt.Sprintf("leadhub:digest:%s:%s:%s", merchantID, slot, day.Format("2006-01-02"))
	return d.claim(ctx, key)
}

func (d *Dedup) claim(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, key, 1, dedupTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim dedup key %s: %w", key, err)
	}
	return ok, nil
}
