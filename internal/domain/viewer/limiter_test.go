package viewer

import (
	"context"
	"testing"
	"time"
)

func TestMountLimiterInMemoryWindow(t *testing.T) {
	l := NewMountLimiter(nil, 2, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.local.now = func() time.Time { return now }
	ctx := context.Background()

	if !l.Allow(ctx, "10.0.0.1") || !l.Allow(ctx, "10.0.0.1") {
		t.Fatal("first two mounts must pass")
	}
	if l.Allow(ctx, "10.0.0.1") {
		t.Fatal("third mount inside the window must be refused")
	}
	if !l.Allow(ctx, "10.0.0.2") {
		t.Fatal("other clients keep their own budget")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow(ctx, "10.0.0.1") {
		t.Fatal("window did not slide")
	}
}

func TestMountLimiterDisabled(t *testing.T) {
	var nilLimiter *MountLimiter
	if !nilLimiter.Allow(context.Background(), "x") {
		t.Fatal("nil limiter must allow")
	}

	off := NewMountLimiter(nil, 0, time.Minute)
	for i := 0; i < 50; i++ {
		if !off.Allow(context.Background(), "x") {
			t.Fatal("limit 0 must allow everything")
		}
	}
}
