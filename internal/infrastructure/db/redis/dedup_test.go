package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeCmdable answers EXISTS and SET from a map. Any other command panics on
// the nil embedded interface.
type fakeCmdable struct {
	redis.Cmdable
	ttls map[string]time.Duration
	err  error
}

func newFakeCmdable() *fakeCmdable {
	return &fakeCmdable{ttls: map[string]time.Duration{}}
}

func (f *fakeCmdable) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.ttls[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeCmdable) Set(ctx context.Context, key string, _ interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.ttls[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func TestNotificationDedup_Key(t *testing.T) {
	d := NewNotificationDedup(nil, time.Hour)
	if got := d.key("registration", "abc"); got != "notify:registration:abc" {
		t.Fatalf("unexpected key: %s", got)
	}
}

func TestNotificationDedup_DefaultTTL(t *testing.T) {
	if d := NewNotificationDedup(nil, 0); d.ttl != defaultDedupTTL {
		t.Fatalf("expected default ttl, got %s", d.ttl)
	}
	if d := NewNotificationDedup(nil, time.Minute); d.ttl != time.Minute {
		t.Fatalf("expected custom ttl, got %s", d.ttl)
	}
}

func TestNotificationDedup_MarkThenDuplicate(t *testing.T) {
	ctx := context.Background()
	client := newFakeCmdable()
	d := NewNotificationDedup(client, time.Hour)

	dup, err := d.IsDuplicate(ctx, "registration", "k1")
	if err != nil || dup {
		t.Fatalf("fresh key: dup=%v err=%v", dup, err)
	}

	if err := d.Mark(ctx, "registration", "k1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if ttl := client.ttls["notify:registration:k1"]; ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", ttl)
	}

	dup, err = d.IsDuplicate(ctx, "registration", "k1")
	if err != nil || !dup {
		t.Fatalf("marked key: dup=%v err=%v", dup, err)
	}
	if dup, _ := d.IsDuplicate(ctx, "password_reset", "k1"); dup {
		t.Fatal("kinds must not share dedup entries")
	}
}

func TestNotificationDedup_ClientErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	client := newFakeCmdable()
	client.err = boom
	d := NewNotificationDedup(client, time.Hour)

	if _, err := d.IsDuplicate(ctx, "registration", "k1"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
	if err := d.Mark(ctx, "registration", "k1"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}
