package service

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nannkadayo/site-verify-discord-bot/internal/repository"
)

func TestDBPendingArbiterFirstThenRepeat(t *testing.T) {
	db := newServiceDBForTest(t)
	arbiter := NewDBPendingArbiter(repository.NewPendingRepository(db))
	ctx := context.Background()

	attempt, err := arbiter.Begin(ctx, "token-a")
	if err != nil {
		t.Fatalf("first begin: %v", err)
	}
	if attempt != FirstAttempt {
		t.Fatalf("expected FirstAttempt, got %s", attempt)
	}

	attempt, err = arbiter.Begin(ctx, "token-a")
	if err != nil {
		t.Fatalf("second begin: %v", err)
	}
	if attempt != RepeatAttempt {
		t.Fatalf("expected RepeatAttempt, got %s", attempt)
	}

	attempt, err = arbiter.Begin(ctx, "token-b")
	if err != nil {
		t.Fatalf("begin for other token: %v", err)
	}
	if attempt != FirstAttempt {
		t.Fatalf("tokens must not share markers, got %s", attempt)
	}
}

func newRedisArbiterForTest(t *testing.T) *RedisPendingArbiter {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisPendingArbiter(client, "test_pending", time.Minute)
}

func TestRedisPendingArbiterFirstThenRepeat(t *testing.T) {
	arbiter := newRedisArbiterForTest(t)
	ctx := context.Background()

	attempt, err := arbiter.Begin(ctx, "token-a")
	if err != nil {
		t.Fatalf("first begin: %v", err)
	}
	if attempt != FirstAttempt {
		t.Fatalf("expected FirstAttempt, got %s", attempt)
	}
	attempt, err = arbiter.Begin(ctx, "token-a")
	if err != nil {
		t.Fatalf("second begin: %v", err)
	}
	if attempt != RepeatAttempt {
		t.Fatalf("expected RepeatAttempt, got %s", attempt)
	}
}

func TestRedisPendingArbiterConcurrentExactlyOneFirst(t *testing.T) {
	arbiter := newRedisArbiterForTest(t)
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	wg.Add(callers)
	attempts := make([]Attempt, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		idx := i
		go func() {
			defer wg.Done()
			attempts[idx], errs[idx] = arbiter.Begin(ctx, "contended-token")
		}()
	}
	wg.Wait()

	first := 0
	repeat := 0
	for i := range attempts {
		if errs[i] != nil {
			t.Fatalf("begin %d: %v", i, errs[i])
		}
		switch attempts[i] {
		case FirstAttempt:
			first++
		case RepeatAttempt:
			repeat++
		}
	}
	if first != 1 || repeat != callers-1 {
		t.Fatalf("expected exactly one FirstAttempt, got first=%d repeat=%d", first, repeat)
	}
}

func TestRedisPendingArbiterNilClient(t *testing.T) {
	arbiter := NewRedisPendingArbiter(nil, "", 0)
	if _, err := arbiter.Begin(context.Background(), "token"); err == nil {
		t.Fatal("expected nil client error")
	}
}
