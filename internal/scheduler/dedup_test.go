package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestDedup(t *testing.T) *Dedup {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewDedup(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestClaimReminderOnce(t *testing.T) {
	d := newTestDedup(t)
	ctx := context.Background()

	assignmentID := uuid.New()
	actionAt := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)

	claimed, err := d.ClaimReminder(ctx, assignmentID, actionAt)
	if err != nil {
		t.Fatal(err)
	}
	if !claimed {
		t.Fatal("first claim must win")
	}

	claimed, err = d.ClaimReminder(ctx, assignmentID, actionAt)
	if err != nil {
		t.Fatal(err)
	}
	if claimed {
		t.Error("second claim for the same action must lose")
	}
}

func TestClaimReminderDistinctTimes(t *testing.T) {
	d := newTestDedup(t)
	ctx := context.Background()

	assignmentID := uuid.New()
	first := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)

	if claimed, _ := d.ClaimReminder(ctx, assignmentID, first); !claimed {
		t.Fatal("first claim must win")
	}
	// A rescheduled action is a new reminder.
	if claimed, _ := d.ClaimReminder(ctx, assignmentID, first.Add(time.Hour)); !claimed {
		t.Error("a different scheduled time must claim its own mark")
	}
}

func TestClaimDigestPerSlotAndDay(t *testing.T) {
	d := newTestDedup(t)
	ctx := context.Background()

	merchantID := uuid.New()
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	if claimed, _ := d.ClaimDigest(ctx, merchantID, "morning", day); !claimed {
		t.Fatal("first claim must win")
	}
	if claimed, _ := d.ClaimDigest(ctx, merchantID, "morning", day); claimed {
		t.Error("repeat morning digest for the same day must lose")
	}
	if claimed, _ := d.ClaimDigest(ctx, merchantID, "evening", day); !claimed {
		t.Error("evening slot owns its own mark")
	}
	if claimed, _ := d.ClaimDigest(ctx, merchantID, "morning", day.AddDate(0, 0, 1)); !claimed {
		t.Error("next day owns its own mark")
	}
}
