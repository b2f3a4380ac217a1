package cache

import (
	"context"
	"testing"
	"time"
)

func TestNewWithoutRedisIsNoop(t *testing.T) {
	c := New(nil, "qr:")
	if _, ok := c.(Noop); !ok {
		t.Fatalf("New(nil) = %T, want Noop", c)
	}

	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("Get on noop: ok=%v err=%v", ok, err)
	}
}
