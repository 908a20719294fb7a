package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	redispkg "mycommerce/internal/pkg/redis"
	"mycommerce/internal/service/commerce/domain/port"
)

const (
	releaseLockScriptName = "release_lock"
	lockRetryInterval     = 50 * time.Millisecond
)

// 只删除自己持有的锁：token 不匹配说明租约已过期、锁被别人持有，
// 此时删除是空操作
var releaseLockScript = `
if redis.call('get', KEYS[1]) == ARGV[1] then
    return redis.call('del', KEYS[1])
end
return 0
`

// RedisLockAdapter 是 port.LockClient 的 Redis 实现。
// 获取：SET key token NX PX lease，失败则按固定间隔轮询，直到 wait 耗尽；
// 释放：Lua 比较 token 后删除。租约让崩溃的持有者自动让位。
type RedisLockAdapter struct {
	client *redispkg.Client
}

// NewRedisLockAdapter 创建 Redis 锁适配器，并加载释放脚本
func NewRedisLockAdapter(client *redispkg.Client) (*RedisLockAdapter, error) {
	if err := client.LoadScriptFromContent(releaseLockScriptName, releaseLockScript); err != nil {
		return nil, fmt.Errorf("load lock release script: %w", err)
	}
	return &RedisLockAdapter{client: client}, nil
}

// TryAcquire 在 wait 时间内尝试获取锁
func (a *RedisLockAdapter) TryAcquire(ctx context.Context, key string, wait, lease time.Duration) (port.Lock, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := a.client.GetClient().SetNX(ctx, key, token, lease).Result()
		if err != nil {
			return nil, fmt.Errorf("setnx %s: %w", key, err)
		}
		if ok {
			return &redisLock{client: a.client, key: key, token: token}, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// redisLock 绑定获取时生成的 token。
// 租约过期后锁被新持有者拿走时，token 已经不匹配，
// 过期持有者的 Release 在脚本里落空，不会误删新持有者的锁。
type redisLock struct {
	client *redispkg.Client
	key    string
	token  string
}

// Release 释放锁。幂等：token 已不在时为空操作。
func (l *redisLock) Release(ctx context.Context) error {
	if _, err := l.client.RunScript(ctx, releaseLockScriptName, []string{l.key}, l.token); err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	return nil
}
