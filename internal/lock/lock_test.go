//go:build unit

package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var (
	_ Locker = (*Local)(nil)
	_ Locker = (*Redis)(nil)
)

func TestKey(t *testing.T) {
	if got := Key("vote", 3, 7); got != "vote:3:7" {
		t.Errorf("expected 'vote:3:7', got %q", got)
	}
	if got := Key("page"); got != "page" {
		t.Errorf("expected 'page', got %q", got)
	}
}

// exclusive runs n goroutines that each bump a shared counter under the
// lock while checking nobody else is inside.
func exclusive(t *testing.T, l Locker, n int) {
	t.Helper()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
		total   int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "k")
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			total++
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("expected at most one holder, saw %d", maxSeen)
	}
	if total != n {
		t.Errorf("expected %d critical sections, got %d", n, total)
	}
}

func TestLocal_Exclusive(t *testing.T) {
	l := NewLocal()
	exclusive(t, l, 20)
	if l.held() != 0 {
		t.Errorf("expected no slots left, got %d", l.held())
	}
}

func TestLocal_DistinctKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	r1, err := l.Acquire(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r2, err := l.Acquire(ctx, "b")
	if err != nil {
		t.Fatalf("expected independent key to be free: %v", err)
	}
	r2()
}

func TestLocal_ContextCancel(t *testing.T) {
	l := NewLocal()
	release, _ := l.Acquire(context.Background(), "k")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	release()
	release() // second call is a no-op
	if l.held() != 0 {
		t.Errorf("expected no slots left, got %d", l.held())
	}
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisWithClient(client, time.Second), s
}

func TestRedis_Exclusive(t *testing.T) {
	l, _ := newTestRedis(t)
	l.retry = time.Millisecond
	exclusive(t, l, 10)
}

func TestRedis_ReleaseOnlyOwnToken(t *testing.T) {
	l, s := newTestRedis(t)
	var lost []string
	l.OnLost(func(key string, err error) {
		if errors.Is(err, ErrLockLost) {
			lost = append(lost, key)
		}
	})

	release, err := l.Acquire(context.Background(), "page:1")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Exists("lock:page:1") {
		t.Fatal("expected lock key to exist")
	}

	// Another holder takes over after expiry.
	s.FastForward(2 * time.Second)
	if err := s.Set("lock:page:1", "someone-else"); err != nil {
		t.Fatal(err)
	}

	release()
	if got, _ := s.Get("lock:page:1"); got != "someone-else" {
		t.Errorf("release must not delete a foreign lock, value is %q", got)
	}
	if len(lost) != 1 || lost[0] != "page:1" {
		t.Errorf("expected lost callback for page:1, got %v", lost)
	}
}

func TestRedis_ContextCancel(t *testing.T) {
	l, _ := newTestRedis(t)
	release, err := l.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
