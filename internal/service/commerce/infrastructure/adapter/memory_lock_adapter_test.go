package adapter

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryLockMutualExclusion(t *testing.T) {
	a := NewMemoryLockAdapter()
	ctx := context.Background()

	first, err := a.TryAcquire(ctx, "k", 10*time.Millisecond, time.Second)
	if err != nil || first == nil {
		t.Fatalf("first acquire = (%v, %v), want handle", first, err)
	}

	second, err := a.TryAcquire(ctx, "k", 10*time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("second acquire err: %v", err)
	}
	if second != nil {
		t.Fatal("second acquire succeeded while lock held")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}

	third, err := a.TryAcquire(ctx, "k", 10*time.Millisecond, time.Second)
	if err != nil || third == nil {
		t.Fatalf("acquire after release = (%v, %v), want handle", third, err)
	}
}

func TestMemoryLockWaitsForRelease(t *testing.T) {
	a := NewMemoryLockAdapter()
	ctx := context.Background()

	held, _ := a.TryAcquire(ctx, "k", time.Millisecond, time.Second)
	if held == nil {
		t.Fatal("initial acquire failed")
	}

	done := make(chan bool)
	go func() {
		lock, _ := a.TryAcquire(ctx, "k", time.Second, time.Second)
		done <- lock != nil
	}()

	time.Sleep(20 * time.Millisecond)
	held.Release(ctx)

	select {
	case acquired := <-done:
		if !acquired {
			t.Fatal("waiter did not get the lock after release")
		}
	case <-time.After(time.Second):
		t.Fatal("waiter blocked past its wait budget")
	}
}

func TestMemoryLockReleaseIdempotent(t *testing.T) {
	a := NewMemoryLockAdapter()
	ctx := context.Background()

	lock, _ := a.TryAcquire(ctx, "k", time.Millisecond, time.Second)
	if lock == nil {
		t.Fatal("acquire failed")
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("second release: %v", err)
	}

	// 重复释放不会凭空制造第二个令牌
	again, _ := a.TryAcquire(ctx, "k", time.Millisecond, time.Second)
	if again == nil {
		t.Fatal("acquire after double release failed")
	}
	extra, _ := a.TryAcquire(ctx, "k", time.Millisecond, time.Second)
	if extra != nil {
		t.Fatal("double release produced an extra token")
	}
}

// 过期句柄的 Release 不得释放后来者持有的锁
func TestMemoryLockStaleHandleDoesNotReleaseNewHolder(t *testing.T) {
	a := NewMemoryLockAdapter()
	ctx := context.Background()

	stale, _ := a.TryAcquire(ctx, "k", time.Millisecond, time.Second)
	if stale == nil {
		t.Fatal("acquire failed")
	}
	if err := stale.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}

	current, _ := a.TryAcquire(ctx, "k", time.Millisecond, time.Second)
	if current == nil {
		t.Fatal("re-acquire failed")
	}

	// 旧句柄再次释放必须落空
	if err := stale.Release(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if lock, _ := a.TryAcquire(ctx, "k", time.Millisecond, time.Second); lock != nil {
		t.Fatal("stale release freed the new holder's lock")
	}

	if err := current.Release(ctx); err != nil {
		t.Fatalf("current release: %v", err)
	}
	if lock, _ := a.TryAcquire(ctx, "k", time.Millisecond, time.Second); lock == nil {
		t.Fatal("acquire after the real holder released failed")
	}
}

func TestMemoryLockKeysAreIndependent(t *testing.T) {
	a := NewMemoryLockAdapter()
	ctx := context.Background()

	if lock, _ := a.TryAcquire(ctx, "product-1", time.Millisecond, time.Second); lock == nil {
		t.Fatal("acquire product-1 failed")
	}
	if lock, _ := a.TryAcquire(ctx, "product-2", time.Millisecond, time.Second); lock == nil {
		t.Fatal("lock on product-1 blocked product-2")
	}
}

func TestMemoryLockContextCancellation(t *testing.T) {
	a := NewMemoryLockAdapter()

	if lock, _ := a.TryAcquire(context.Background(), "k", time.Millisecond, time.Second); lock == nil {
		t.Fatal("initial acquire failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := a.TryAcquire(ctx, "k", time.Minute, time.Second)
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestMemoryLockConcurrentCounter(t *testing.T) {
	a := NewMemoryLockAdapter()
	ctx := context.Background()

	// 锁保护下的自增不丢更新
	counter := 0
	var wg sync.WaitGroup
	const workers = 50

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock, err := a.TryAcquire(ctx, "counter", 5*time.Second, time.Second)
			if err != nil || lock == nil {
				t.Errorf("acquire = (%v, %v)", lock, err)
				return
			}
			counter++
			lock.Release(ctx)
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Errorf("counter = %d, want %d (lost updates)", counter, workers)
	}
}
