package dedup

import (
	"context"
	"testing"
	"time"
)

func Test_Memory_ClaimOncePerTTL(t *testing.T) {
	m := NewMemory(time.Minute)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if !m.Claim(ctx, "message", "k1") {
		t.Fatal("first claim must win")
	}
	if m.Claim(ctx, "message", "k1") {
		t.Fatal("second claim must lose")
	}
	if !m.Claim(ctx, "payment", "k1") {
		t.Fatal("scopes are independent")
	}

	now = now.Add(2 * time.Minute)
	if !m.Claim(ctx, "message", "k1") {
		t.Fatal("claim must be free again after ttl")
	}
}
