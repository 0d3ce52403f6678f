package campaigns

import (
	"context"
	"testing"
	"time"

	"estateleads_backend/internal/leads/ports"
	"estateleads_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type countingDirectory struct {
	snapshot ports.CampaignSnapshot
	found    bool
	calls    int
}

func (d *countingDirectory) Get(_ context.Context, id uuid.UUID) (ports.CampaignSnapshot, bool, error) {
	d.calls++
	snap := d.snapshot
	snap.ID = id
	return snap, d.found, nil
}

func newCacheFixture(t *testing.T, inner *countingDirectory, ttl time.Duration) (*CachedDirectory, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewCachedDirectory(inner, rdb, ttl, logger.New("test")), mr
}

func TestCachedDirectoryServesSecondReadFromCache(t *testing.T) {
	inner := &countingDirectory{
		snapshot: ports.CampaignSnapshot{Name: "Spring Launch", Active: true, StartedAt: time.Now().UTC().Truncate(time.Second)},
		found:    true,
	}
	cache, _ := newCacheFixture(t, inner, time.Minute)
	id := uuid.New()

	first, found, err := cache.Get(context.Background(), id)
	if err != nil || !found {
		t.Fatalf("first Get() = found %v, err %v", found, err)
	}

	second, found, err := cache.Get(context.Background(), id)
	if err != nil || !found {
		t.Fatalf("second Get() = found %v, err %v", found, err)
	}

	if inner.calls != 1 {
		t.Errorf("inner directory called %d times, want 1 (second read cached)", inner.calls)
	}
	if second.Name != first.Name || !second.Active || second.ID != id {
		t.Errorf("cached snapshot = %+v, want %+v", second, first)
	}
}

func TestCachedDirectoryCachesKnownMisses(t *testing.T) {
	inner := &countingDirectory{found: false}
	cache, _ := newCacheFixture(t, inner, time.Minute)
	id := uuid.New()

	for i := 0; i < 3; i++ {
		_, found, err := cache.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if found {
			t.Fatal("Get() found = true for unknown campaign")
		}
	}

	if inner.calls != 1 {
		t.Errorf("inner directory called %d times, want 1 (misses cached too)", inner.calls)
	}
}

func TestCachedDirectoryExpires(t *testing.T) {
	inner := &countingDirectory{found: true, snapshot: ports.CampaignSnapshot{Active: true}}
	cache, mr := newCacheFixture(t, inner, time.Minute)
	id := uuid.New()

	if _, _, err := cache.Get(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)
	if _, _, err := cache.Get(context.Background(), id); err != nil {
		t.Fatal(err)
	}

	if inner.calls != 2 {
		t.Errorf("inner directory called %d times, want 2 after TTL expiry", inner.calls)
	}
}
