package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/go-zookeeper/zk"

	"mycommerce/internal/service/commerce/domain/port"
	"mycommerce/internal/zookeeper"
)

// ZookeeperLockAdapter 是 port.LockClient 的 ZooKeeper 实现。
// 互斥由临时顺序节点保证；临时节点随会话消失，等价于崩溃自动释放，
// 因此 lease 参数在这里不生效（会话超时承担了租约的角色）。
type ZookeeperLockAdapter struct {
	conn *zk.Conn
}

// NewZookeeperLockAdapter 创建 ZooKeeper 锁适配器
func NewZookeeperLockAdapter(conn *zk.Conn) *ZookeeperLockAdapter {
	return &ZookeeperLockAdapter{conn: conn}
}

// TryAcquire 在 wait 时间内尝试获取锁。
// 返回的句柄绑定本次创建的顺序节点：会话过期后锁易主时，
// Release 删除的是自己那个已经不存在的节点，不会碰新持有者的节点。
func (a *ZookeeperLockAdapter) TryAcquire(ctx context.Context, key string, wait, lease time.Duration) (port.Lock, error) {
	lock, err := zookeeper.NewDistributedLock(a.conn, key)
	if err != nil {
		return nil, err
	}

	if err := lock.Lock(wait); err != nil {
		if errors.Is(err, zookeeper.ErrLockWaitTimeout) {
			return nil, nil
		}
		return nil, err
	}
	return &zookeeperLock{lock: lock}, nil
}

type zookeeperLock struct {
	lock *zookeeper.DistributedLock
}

// Release 释放锁。幂等：节点已消失时为空操作。
func (l *zookeeperLock) Release(ctx context.Context) error {
	return l.lock.Unlock()
}
