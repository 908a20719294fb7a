package port

import (
	"context"
	"time"
)

// Lock 代表一次成功的锁获取。
// Release 只释放本次获取：租约过期后锁被其他调用方拿走时，
// 过期持有者的 Release 不会碰新持有者的锁。幂等，重复释放不报错。
type Lock interface {
	Release(ctx context.Context) error
}

// LockClient 是跨进程互斥锁的出站端口，按字符串 key 互斥，
// 同一 key 任一时刻至多一个持有者。
// 它是注入的能力而不是全局单例，测试用内存实现替换。
type LockClient interface {
	// TryAcquire 在 wait 时间内尝试获取 key 对应的锁。
	// lease 是持有租约：进程崩溃后锁会在租约到期时自动释放，
	// 避免把该 key 的所有后续调用方锁死。
	// 成功返回本次获取的释放句柄；等待超时返回 (nil, nil)（非错误）。
	TryAcquire(ctx context.Context, key string, wait, lease time.Duration) (Lock, error)
}
