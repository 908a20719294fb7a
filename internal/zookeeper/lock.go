package zookeeper

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

const lockRoot = "/mycommerce_locks" // 所有分布式锁的根节点

// ErrLockWaitTimeout 在限定时间内没有等到锁
var ErrLockWaitTimeout = errors.New("timeout waiting for zookeeper lock")

// DistributedLock 基于临时顺序节点的分布式锁。
// 节点随会话消失，持有者崩溃后锁自动释放，等价于租约到期。
type DistributedLock struct {
	conn     *zk.Conn
	path     string // 锁的父节点路径，例如 /mycommerce_locks/lock:product:123
	lockNode string // 成功获取锁后自己创建的节点路径
}

// NewDistributedLock 创建一个新的分布式锁实例，并确保锁路径存在
func NewDistributedLock(conn *zk.Conn, resourceID string) (*DistributedLock, error) {
	if err := ensureNode(conn, lockRoot); err != nil {
		return nil, err
	}

	lockPath := lockRoot + "/" + resourceID
	if err := ensureNode(conn, lockPath); err != nil {
		return nil, err
	}

	return &DistributedLock{conn: conn, path: lockPath}, nil
}

func ensureNode(conn *zk.Conn, path string) error {
	exists, _, err := conn.Exists(path)
	if err != nil {
		return fmt.Errorf("check node %s: %w", path, err)
	}
	if exists {
		return nil
	}
	if _, err := conn.Create(path, []byte{}, 0, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
		return fmt.Errorf("create node %s: %w", path, err)
	}
	return nil
}

// Lock 尝试获取锁，最多等待 wait；超时返回 ErrLockWaitTimeout
func (l *DistributedLock) Lock(wait time.Duration) error {
	// 1. 创建自己的临时顺序节点。
	// 节点名形如 lock-0000000007，字典序即获取顺序。
	nodePath, err := l.conn.Create(l.path+"/lock-", []byte{},
		zk.FlagEphemeral|zk.FlagSequence, zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("create sequential node: %w", err)
	}
	l.lockNode = nodePath

	deadline := time.Now().Add(wait)
	for {
		// 2. 列出全部竞争者并排序
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			l.abandon()
			return fmt.Errorf("get children nodes: %w", err)
		}
		sort.Strings(children)

		// 3. 自己是最小节点则获得锁
		myNodeName := strings.TrimPrefix(l.lockNode, l.path+"/")
		if myNodeName == children[0] {
			return nil
		}

		// 4. 否则只监听排在自己前面的那个节点，避免惊群
		prevIndex := -1
		for i, child := range children {
			if child == myNodeName {
				prevIndex = i - 1
				break
			}
		}
		if prevIndex < 0 {
			l.abandon()
			return errors.New("own lock node missing from children")
		}

		exists, _, eventChan, err := l.conn.ExistsW(l.path + "/" + children[prevIndex])
		if err != nil {
			l.abandon()
			return fmt.Errorf("watch previous node: %w", err)
		}
		if !exists {
			// 前一个节点在监听建立前刚好被删除，重新竞争
			continue
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			l.abandon()
			return ErrLockWaitTimeout
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(remaining):
			l.abandon()
			return ErrLockWaitTimeout
		}
	}
}

// Unlock 释放锁。幂等：未持有或节点已消失时直接返回 nil。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return nil
	}
	err := l.conn.Delete(l.lockNode, -1)
	l.lockNode = ""
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("delete lock node: %w", err)
	}
	return nil
}

// abandon 获取失败时清掉自己排队用的节点，不能把僵尸节点留在队列里
func (l *DistributedLock) abandon() {
	if l.lockNode == "" {
		return
	}
	_ = l.conn.Delete(l.lockNode, -1)
	l.lockNode = ""
}
