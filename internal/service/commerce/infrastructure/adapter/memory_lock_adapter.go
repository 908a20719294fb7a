package adapter

import (
	"context"
	"sync"
	"time"

	"mycommerce/internal/service/commerce/domain/port"
)

// MemoryLockAdapter 是 port.LockClient 的单进程内存实现，开发与测试用。
// 每个 key 对应一个容量为 1 的令牌通道；lease 参数不生效——
// 进程内没有"崩溃后残留"的问题需要租约来解决。
type MemoryLockAdapter struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewMemoryLockAdapter 创建内存锁适配器
func NewMemoryLockAdapter() *MemoryLockAdapter {
	return &MemoryLockAdapter{locks: make(map[string]chan struct{})}
}

func (a *MemoryLockAdapter) tokenChan(key string) chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		a.locks[key] = ch
	}
	return ch
}

// TryAcquire 在 wait 时间内尝试获取锁
func (a *MemoryLockAdapter) TryAcquire(ctx context.Context, key string, wait, lease time.Duration) (port.Lock, error) {
	ch := a.tokenChan(key)

	select {
	case ch <- struct{}{}:
		return &memoryLock{ch: ch}, nil
	default:
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return &memoryLock{ch: ch}, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// memoryLock 绑定本次获取投入的令牌，最多取回一次。
// 重复 Release 不会取走后续持有者的令牌。
type memoryLock struct {
	ch   chan struct{}
	once sync.Once
}

// Release 释放锁。幂等。
func (l *memoryLock) Release(ctx context.Context) error {
	l.once.Do(func() {
		select {
		case <-l.ch:
		default:
		}
	})
	return nil
}
