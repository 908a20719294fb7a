package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mycommerce/internal/service/commerce/domain"
	"mycommerce/internal/service/commerce/domain/port"
)

// ---- 测试替身 ----

// memProductRepo 是内存商品仓储，带版本校验，行为与 GORM 实现对齐
type memProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

func newMemProductRepo(products ...*domain.Product) *memProductRepo {
	r := &memProductRepo{products: make(map[string]*domain.Product)}
	for _, p := range products {
		cp := *p
		r.products[p.ID] = &cp
	}
	return r
}

func (r *memProductRepo) get(id string) (*domain.Product, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

func (r *memProductRepo) stock(t *testing.T, id string) int {
	t.Helper()
	p, ok := r.get(id)
	if !ok {
		t.Fatalf("product %s not found", id)
	}
	return p.Stock
}

func (r *memProductRepo) Save(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *memProductRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := r.get(id)
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (r *memProductRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	result := make(map[string]*domain.Product)
	for _, id := range ids {
		if p, ok := r.get(id); ok {
			result[id] = p
		}
	}
	return result, nil
}

func (r *memProductRepo) FindAll(ctx context.Context) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.Product
	for _, p := range r.products {
		cp := *p
		all = append(all, &cp)
	}
	return all, nil
}

func (r *memProductRepo) FindByIDForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *memProductRepo) Update(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.products[product.ID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if current.Version != product.Version {
		return domain.ErrVersionConflict
	}
	cp := *product
	cp.Version++
	r.products[product.ID] = &cp
	product.Version++
	return nil
}

func (r *memProductRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

// fakeTxManager 直接执行回调，测试不关心事务边界本身
type fakeTxManager struct{}

func (fakeTxManager) Transaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) IndependentTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// trackingLock 是会互斥的锁替身，同时记录每个 key 同时持有者的峰值，
// 用来断言临界区确实被串行化了
type trackingLock struct {
	mu       sync.Mutex
	channels map[string]chan struct{}

	holders    map[string]int
	maxHolders int
	acquires   int
	releases   int
}

func newTrackingLock() *trackingLock {
	return &trackingLock{
		channels: make(map[string]chan struct{}),
		holders:  make(map[string]int),
	}
}

func (l *trackingLock) tokens(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.channels[key]
	if !ok {
		ch = make(chan struct{}, 1)
		ch <- struct{}{}
		l.channels[key] = ch
	}
	return ch
}

func (l *trackingLock) TryAcquire(ctx context.Context, key string, wait, lease time.Duration) (port.Lock, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-l.tokens(key):
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	l.mu.Lock()
	l.acquires++
	l.holders[key]++
	if l.holders[key] > l.maxHolders {
		l.maxHolders = l.holders[key]
	}
	l.mu.Unlock()
	return &trackedLock{parent: l, key: key}, nil
}

// trackedLock 绑定一次获取，重复 Release 只生效一次
type trackedLock struct {
	parent *trackingLock
	key    string
	once   sync.Once
}

func (t *trackedLock) Release(ctx context.Context) error {
	t.once.Do(func() {
		l := t.parent
		l.mu.Lock()
		l.releases++
		if l.holders[t.key] > 0 {
			l.holders[t.key]--
		}
		ch := l.channels[t.key]
		l.mu.Unlock()

		if ch != nil {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	})
	return nil
}

// timeoutLock 永远拿不到锁
type timeoutLock struct{}

func (l *timeoutLock) TryAcquire(ctx context.Context, key string, wait, lease time.Duration) (port.Lock, error) {
	return nil, nil
}

// keyFailLock 只对指定 key 超时，其余行为同 trackingLock
type keyFailLock struct {
	*trackingLock
	failKeys map[string]bool
}

func (l *keyFailLock) TryAcquire(ctx context.Context, key string, wait, lease time.Duration) (port.Lock, error) {
	if l.failKeys[key] {
		return nil, nil
	}
	return l.trackingLock.TryAcquire(ctx, key, wait, lease)
}

func newTestStockService(repo *memProductRepo, lock port.LockClient) *StockService {
	s := NewStockService(repo, lock, fakeTxManager{})
	// 压缩锁等待时间，让超时路径的测试不用等 10 秒
	s.lockWait = 200 * time.Millisecond
	return s
}

func mustProduct(t *testing.T, name string, price int64, stock int) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct(name, "", decimal.NewFromInt(price), stock)
	if err != nil {
		t.Fatalf("NewProduct: %v", err)
	}
	return p
}

// ---- 测试 ----

func TestDecreaseStockWithLock(t *testing.T) {
	p := mustProduct(t, "widget", 10, 10)
	repo := newMemProductRepo(p)
	lock := newTrackingLock()
	s := newTestStockService(repo, lock)

	if err := s.DecreaseStockWithLock(context.Background(), p.ID, 4); err != nil {
		t.Fatalf("DecreaseStockWithLock: %v", err)
	}
	if got := repo.stock(t, p.ID); got != 6 {
		t.Errorf("stock = %d, want 6", got)
	}
	if lock.acquires != 1 || lock.releases != 1 {
		t.Errorf("acquires=%d releases=%d, want 1/1", lock.acquires, lock.releases)
	}
}

// 库存 10，10 个并发请求各买 5：恰好 2 单成功，其余 8 单库存不足，最终库存为 0
func TestConcurrentDecrease_ExactSellout(t *testing.T) {
	p := mustProduct(t, "widget", 10, 10)
	repo := newMemProductRepo(p)
	lock := newTrackingLock()
	s := newTestStockService(repo, lock)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.DecreaseStockWithLock(context.Background(), p.ID, 5)
		}(i)
	}
	wg.Wait()

	var success, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			success++
		default:
			var e *domain.InsufficientStockError
			if errors.As(err, &e) {
				insufficient++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}

	if success != 2 || insufficient != 8 {
		t.Errorf("success=%d insufficient=%d, want 2/8", success, insufficient)
	}
	if got := repo.stock(t, p.ID); got != 0 {
		t.Errorf("final stock = %d, want 0", got)
	}
}

// 100 个并发请求各买 1，库存 10：恰好 10 单成功，且临界区从未重叠
func TestConcurrentDecrease_NoOverlap(t *testing.T) {
	p := mustProduct(t, "widget", 10, 10)
	repo := newMemProductRepo(p)
	lock := newTrackingLock()
	s := newTestStockService(repo, lock)
	// 高争抢下排队时间会超过默认等待，放宽避免假超时
	s.lockWait = 5 * time.Second

	const workers = 100
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.DecreaseStockWithLock(context.Background(), p.ID, 1)
		}(i)
	}
	wg.Wait()

	var success int
	for _, err := range errs {
		if err == nil {
			success++
		}
	}

	if success != 10 {
		t.Errorf("success = %d, want 10", success)
	}
	if got := repo.stock(t, p.ID); got != 0 {
		t.Errorf("final stock = %d, want 0", got)
	}
	if lock.maxHolders > 1 {
		t.Errorf("critical section overlapped: max holders = %d", lock.maxHolders)
	}
}

func TestDecreaseStock_InvalidQuantityRejectedBeforeLock(t *testing.T) {
	p := mustProduct(t, "widget", 10, 10)
	repo := newMemProductRepo(p)
	lock := newTrackingLock()
	s := newTestStockService(repo, lock)

	for _, qty := range []int{0, -1} {
		err := s.DecreaseStockWithLock(context.Background(), p.ID, qty)
		var invalid *domain.InvalidQuantityError
		if !errors.As(err, &invalid) {
			t.Fatalf("qty=%d err = %v, want InvalidQuantityError", qty, err)
		}
	}

	if lock.acquires != 0 {
		t.Errorf("lock acquired %d times for invalid requests, want 0", lock.acquires)
	}
	if got := repo.stock(t, p.ID); got != 10 {
		t.Errorf("stock = %d, want 10", got)
	}
}

func TestDecreaseStock_LockTimeout(t *testing.T) {
	p := mustProduct(t, "widget", 10, 10)
	repo := newMemProductRepo(p)
	lock := &timeoutLock{}
	s := newTestStockService(repo, lock)

	err := s.DecreaseStockWithLock(context.Background(), p.ID, 1)
	if !errors.Is(err, domain.ErrLockTimeout) {
		t.Fatalf("err = %v, want ErrLockTimeout", err)
	}
	if got := repo.stock(t, p.ID); got != 10 {
		t.Errorf("stock = %d, want 10", got)
	}
}

func TestDecreaseStock_MissingProductReleasesLock(t *testing.T) {
	repo := newMemProductRepo()
	lock := newTrackingLock()
	s := newTestStockService(repo, lock)

	err := s.DecreaseStockWithLock(context.Background(), "ghost", 1)
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("err = %v, want ErrProductNotFound", err)
	}
	if lock.acquires != 1 || lock.releases != 1 {
		t.Errorf("acquires=%d releases=%d, want 1/1 (no leaked lock)", lock.acquires, lock.releases)
	}
}

// versionConflictRepo 的 Update 永远返回版本冲突
type versionConflictRepo struct{ *memProductRepo }

func (r *versionConflictRepo) Update(ctx context.Context, product *domain.Product) error {
	return domain.ErrVersionConflict
}

func TestDecreaseStock_VersionConflictPropagates(t *testing.T) {
	p := mustProduct(t, "widget", 10, 10)
	repo := &versionConflictRepo{newMemProductRepo(p)}
	lock := newTrackingLock()
	s := NewStockService(repo, lock, fakeTxManager{})

	err := s.DecreaseStockWithLock(context.Background(), p.ID, 1)
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}
	if lock.releases != 1 {
		t.Errorf("releases = %d, want 1 (lock must not leak on conflict)", lock.releases)
	}
}

func TestIncreaseStockWithLock(t *testing.T) {
	p := mustProduct(t, "widget", 10, 3)
	repo := newMemProductRepo(p)
	s := newTestStockService(repo, newTrackingLock())

	if err := s.IncreaseStockWithLock(context.Background(), p.ID, 7); err != nil {
		t.Fatalf("IncreaseStockWithLock: %v", err)
	}
	if got := repo.stock(t, p.ID); got != 10 {
		t.Errorf("stock = %d, want 10", got)
	}
}
