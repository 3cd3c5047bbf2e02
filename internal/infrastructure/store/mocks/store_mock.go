package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/fairway-commerce/internal/domain/audit"
	"github.com/example/fairway-commerce/internal/domain/order"
	"github.com/example/fairway-commerce/internal/domain/product"
	"github.com/example/fairway-commerce/internal/domain/user"
	"github.com/example/fairway-commerce/internal/infrastructure/store"
)

// MockStore is an in-memory implementation of store.TxRunner and
// store.ReadStore for testing. Transactions are serialized by a single lock,
// which stands in for the row locks of the real store.
type MockStore struct {
	txMu sync.Mutex // held for the whole transaction
	mu   sync.RWMutex

	orders   map[string]*order.Order
	products map[string]*product.Product
	users    map[string]*user.User
	audits   []audit.Entry

	// For tracking calls in tests
	TxCount       int
	CommitCount   int
	RollbackCount int

	// FailOn makes the named Tx method ("GetOrderForUpdate", "UpdateProduct",
	// "UpdateOrderStatus", "AppendAudit", "GetProductForUpdate") return the error.
	FailOn map[string]error
	// CommitDelay simulates a slow backend before commit; an expired ctx
	// during the delay rolls the transaction back.
	CommitDelay time.Duration
}

// NewMockStore creates a new MockStore
func NewMockStore() *MockStore {
	return &MockStore{
		orders:   make(map[string]*order.Order),
		products: make(map[string]*product.Product),
		users:    make(map[string]*user.User),
		FailOn:   make(map[string]error),
	}
}

// AddOrder seeds an order.
func (m *MockStore) AddOrder(o order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = cloneOrder(&o)
}

// AddProduct seeds a product.
func (m *MockStore) AddProduct(p product.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = &p
}

// AddUser seeds a user.
func (m *MockStore) AddUser(u user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Email] = &u
}

// Order returns a copy of the committed order.
func (m *MockStore) Order(id string) (order.Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return order.Order{}, false
	}
	return *cloneOrder(o), true
}

// Product returns a copy of the committed product.
func (m *MockStore) Product(id string) (product.Product, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return product.Product{}, false
	}
	return *p, true
}

// AuditEntries returns every committed audit entry in insertion order.
func (m *MockStore) AuditEntries() []audit.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]audit.Entry, len(m.audits))
	copy(out, m.audits)
	return out
}

// AuditEntriesByAction filters committed entries by action tag.
func (m *MockStore) AuditEntriesByAction(action string) []audit.Entry {
	var out []audit.Entry
	for _, e := range m.AuditEntries() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type snapshot struct {
	orders   map[string]*order.Order
	products map[string]*product.Product
	audits   []audit.Entry
}

func (m *MockStore) snapshot() *snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := &snapshot{
		orders:   make(map[string]*order.Order, len(m.orders)),
		products: make(map[string]*product.Product, len(m.products)),
		audits:   make([]audit.Entry, len(m.audits)),
	}
	for k, v := range m.orders {
		s.orders[k] = cloneOrder(v)
	}
	for k, v := range m.products {
		p := *v
		s.products[k] = &p
	}
	copy(s.audits, m.audits)
	return s
}

func (m *MockStore) commit(s *snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = s.orders
	m.products = s.products
	m.audits = s.audits
	m.CommitCount++
}

// WithinTx implements store.TxRunner. The transaction works on a private
// copy of the data that replaces the committed state only on success, so
// readers never observe partial writes.
func (m *MockStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.TxCount++
	m.mu.Unlock()

	rollback := func() {
		m.mu.Lock()
		m.RollbackCount++
		m.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	work := m.snapshot()
	if err := fn(ctx, &mockTx{m: m, work: work}); err != nil {
		rollback()
		return err
	}

	if m.CommitDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(m.CommitDelay):
		}
	}
	if err := ctx.Err(); err != nil {
		rollback()
		return err
	}

	m.commit(work)
	return nil
}

// GetOrder implements store.ReadStore.
func (m *MockStore) GetOrder(_ context.Context, orderID string) (*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cur, ok := m.orders[orderID]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	o := cloneOrder(cur)
	joinProducts(o, m.products)
	return o, nil
}

// ListOrderAuditLogs implements store.ReadStore, newest first.
func (m *MockStore) ListOrderAuditLogs(_ context.Context, orderID string, limit int) ([]audit.Entry, error) {
	out := make([]audit.Entry, 0)
	for _, e := range m.AuditEntries() {
		onOrder := e.EntityType == audit.EntityOrder && e.EntityID == orderID
		if onOrder || e.Metadata[audit.MetaOrderID] == orderID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].EntityType < out[j].EntityType
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetUserByEmail implements store.ReadStore.
func (m *MockStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// CreateUser implements user.Repository.
func (m *MockStore) CreateUser(_ context.Context, u *user.User) error {
	m.AddUser(*u)
	return nil
}

type mockTx struct {
	m    *MockStore
	work *snapshot
}

func (t *mockTx) fail(method string) error {
	t.m.mu.RLock()
	defer t.m.mu.RUnlock()
	return t.m.FailOn[method]
}

func (t *mockTx) GetOrderForUpdate(ctx context.Context, orderID string) (*order.Order, error) {
	if err := t.fail("GetOrderForUpdate"); err != nil {
		return nil, err
	}
	cur, ok := t.work.orders[orderID]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	o := cloneOrder(cur)
	joinProducts(o, t.work.products)
	return o, ctx.Err()
}

func (t *mockTx) GetProductForUpdate(ctx context.Context, productID string) (*product.Product, error) {
	if err := t.fail("GetProductForUpdate"); err != nil {
		return nil, err
	}
	cur, ok := t.work.products[productID]
	if !ok {
		return nil, store.ErrProductNotFound
	}
	p := *cur
	return &p, ctx.Err()
}

func (t *mockTx) UpdateProduct(ctx context.Context, p product.Product) error {
	if err := t.fail("UpdateProduct"); err != nil {
		return err
	}
	if _, ok := t.work.products[p.ID]; !ok {
		return store.ErrProductNotFound
	}
	t.work.products[p.ID] = &p
	return ctx.Err()
}

func (t *mockTx) UpdateOrderStatus(ctx context.Context, o *order.Order) error {
	if err := t.fail("UpdateOrderStatus"); err != nil {
		return err
	}
	cur, ok := t.work.orders[o.ID]
	if !ok {
		return store.ErrOrderNotFound
	}
	next := cloneOrder(cur)
	next.Status = o.Status
	next.PaymentMetadata = clonePaymentMetadata(o.PaymentMetadata)
	next.UpdatedAt = o.UpdatedAt
	t.work.orders[o.ID] = next
	return ctx.Err()
}

func (t *mockTx) AppendAudit(ctx context.Context, e audit.Entry) error {
	if err := t.fail("AppendAudit"); err != nil {
		return err
	}
	t.work.audits = append(t.work.audits, e)
	return ctx.Err()
}

// joinProducts fills the item fields the SQL store reads from products.
func joinProducts(o *order.Order, products map[string]*product.Product) {
	for i := range o.Items {
		if p, ok := products[o.Items[i].ProductID]; ok {
			o.Items[i].BrandID = p.BrandID
			o.Items[i].ProductName = p.Name
		}
	}
}

func cloneOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Items = append([]order.OrderItem(nil), o.Items...)
	cp.PaymentMetadata = clonePaymentMetadata(o.PaymentMetadata)
	return &cp
}

func clonePaymentMetadata(pm order.PaymentMetadata) order.PaymentMetadata {
	var out order.PaymentMetadata
	if pm.Shipment != nil {
		s := *pm.Shipment
		out.Shipment = &s
	}
	if pm.Extra != nil {
		out.Extra = make(map[string]any, len(pm.Extra))
		for k, v := range pm.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
