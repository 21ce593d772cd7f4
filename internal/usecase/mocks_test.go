//go:build !integration

package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/adapter"
	"smm-reseller/internal/domain/ports/repository"
)

// mockTxManager runs the function directly; unit tests do not exercise
// real transaction semantics.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// memKeyRepo is a small in-memory implementation used by unit tests.
type memKeyRepo struct {
	mu      sync.Mutex
	store   map[string]*model.RedemptionKey // by key value
	nextID  int
	saveErr error
}

func newMemKeyRepo() *memKeyRepo {
	return &memKeyRepo{store: make(map[string]*model.RedemptionKey)}
}

func (m *memKeyRepo) Save(ctx context.Context, _ repository.Tx, k *model.RedemptionKey) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if k.ID == "" {
		m.nextID++
		k.ID = fmt.Sprintf("key-%d", m.nextID)
	}
	cp := *k
	m.store[k.KeyValue] = &cp
	return nil
}

func (m *memKeyRepo) FindByValue(ctx context.Context, _ repository.Tx, keyValue string) (*model.RedemptionKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.store[keyValue]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *k
	return &cp, nil
}

func (m *memKeyRepo) ListAll(ctx context.Context, _ repository.Tx) ([]*model.RedemptionKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.RedemptionKey, 0, len(m.store))
	for _, k := range m.store {
		cp := *k
		out = append(out, &cp)
	}
	return out, nil
}

// ConsumeUse mirrors the single-statement conditional increment: the
// check and the increment happen under one lock.
func (m *memKeyRepo) ConsumeUse(ctx context.Context, _ repository.Tx, keyValue string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.store[keyValue]
	if !ok || !k.IsActive || k.UsageCount >= k.UsageLimit {
		return domain.ErrLimitReached
	}
	k.UsageCount++
	return nil
}

func (m *memKeyRepo) Delete(ctx context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for v, k := range m.store {
		if k.ID == id {
			delete(m.store, v)
			return nil
		}
	}
	return domain.ErrNotFound
}

type memServiceRepo struct {
	mu     sync.Mutex
	store  map[string]*model.Service // by ID
	nextID int
}

func newMemServiceRepo() *memServiceRepo {
	return &memServiceRepo{store: make(map[string]*model.Service)}
}

func (m *memServiceRepo) Save(ctx context.Context, _ repository.Tx, s *model.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		m.nextID++
		s.ID = fmt.Sprintf("svc-%d", m.nextID)
	}
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *memServiceRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memServiceRepo) ListAll(ctx context.Context, _ repository.Tx) ([]*model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Service, 0, len(m.store))
	for _, s := range m.store {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memServiceRepo) ListByProvider(ctx context.Context, _ repository.Tx, providerID string) ([]*model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Service
	for _, s := range m.store {
		if s.ProviderID == providerID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memServiceRepo) UpsertBatch(ctx context.Context, _ repository.Tx, services []*model.Service) (repository.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res repository.UpsertResult
	for _, s := range services {
		var existing *model.Service
		for _, cur := range m.store {
			if cur.ProviderID == s.ProviderID && cur.ExternalServiceID == s.ExternalServiceID {
				existing = cur
				break
			}
		}
		if existing != nil {
			id := existing.ID
			cp := *s
			cp.ID = id
			m.store[id] = &cp
			res.Updated++
			continue
		}
		m.nextID++
		cp := *s
		cp.ID = fmt.Sprintf("svc-%d", m.nextID)
		s.ID = cp.ID
		m.store[cp.ID] = &cp
		res.Created++
	}
	return res, nil
}

func (m *memServiceRepo) Delete(ctx context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

type memOrderRepo struct {
	mu      sync.Mutex
	orders  []*model.Order
	nextID  int
	saveErr error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{}
}

func (m *memOrderRepo) Save(ctx context.Context, _ repository.Tx, o *model.Order) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	if o.ID == "" {
		o.ID = fmt.Sprintf("row-%d", m.nextID)
	}
	cp := *o
	m.orders = append(m.orders, &cp)
	return nil
}

func (m *memOrderRepo) FindByOrderID(ctx context.Context, _ repository.Tx, orderID string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderID == orderID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrderRepo) ListAll(ctx context.Context, _ repository.Tx) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Order, 0, len(m.orders))
	for _, o := range m.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memOrderRepo) FindLatestByKey(ctx context.Context, _ repository.Tx, keyID string) (*model.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Order
	count := 0
	for _, o := range m.orders {
		if o.KeyID == nil || *o.KeyID != keyID {
			continue
		}
		count++
		// Ties on CreatedAt resolve to the later insert, matching the
		// ORDER BY created_at DESC, order_id DESC query.
		if latest == nil || !o.CreatedAt.Before(latest.CreatedAt) {
			latest = o
		}
	}
	if latest == nil {
		return nil, 0, domain.ErrNotFound
	}
	cp := *latest
	return &cp, count, nil
}

func (m *memOrderRepo) UpdateStatus(ctx context.Context, _ repository.Tx, orderID string, status model.OrderStatus, startCount, remains *int, externalOrderID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderID != orderID {
			continue
		}
		o.Status = status
		if startCount != nil {
			o.StartCount = startCount
		}
		if remains != nil {
			o.Remains = remains
		}
		if externalOrderID != nil {
			o.ExternalOrderID = externalOrderID
		}
		o.UpdatedAt = time.Now()
		return nil
	}
	return domain.ErrNotFound
}

func (m *memOrderRepo) ListUnfinishedOlderThan(ctx context.Context, _ repository.Tx, cutoff time.Time, limit int) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.orders {
		if len(out) >= limit {
			break
		}
		if (o.Status == model.OrderStatusPending || o.Status == model.OrderStatusInProgress) && o.CreatedAt.Before(cutoff) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memActivityRepo struct {
	mu      sync.Mutex
	entries []*model.ActivityLog
}

func newMemActivityRepo() *memActivityRepo {
	return &memActivityRepo{}
}

func (m *memActivityRepo) Append(ctx context.Context, _ repository.Tx, e *model.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.ID = fmt.Sprintf("log-%d", len(m.entries)+1)
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memActivityRepo) ListRecent(ctx context.Context, _ repository.Tx, limit int) ([]*model.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.ActivityLog, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.entries[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memActivityRepo) byType(typ string) []*model.ActivityLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ActivityLog
	for _, e := range m.entries {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type memProviderRepo struct {
	mu     sync.Mutex
	store  map[string]*model.APIProvider
	nextID int
}

func newMemProviderRepo() *memProviderRepo {
	return &memProviderRepo{store: make(map[string]*model.APIProvider)}
}

func (m *memProviderRepo) Save(ctx context.Context, _ repository.Tx, p *model.APIProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		m.nextID++
		p.ID = fmt.Sprintf("prov-%d", m.nextID)
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memProviderRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.APIProvider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProviderRepo) ListAll(ctx context.Context, _ repository.Tx) ([]*model.APIProvider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.APIProvider, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memProviderRepo) Delete(ctx context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

type memSessionRepo struct {
	mu    sync.Mutex
	store map[string]*model.AdminSession // by token
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{store: make(map[string]*model.AdminSession)}
}

func (m *memSessionRepo) Save(ctx context.Context, _ repository.Tx, s *model.AdminSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.SessionToken] = &cp
	return nil
}

func (m *memSessionRepo) FindByToken(ctx context.Context, _ repository.Tx, token string) (*model.AdminSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionRepo) Delete(ctx context.Context, _ repository.Tx, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, token)
	return nil
}

type memUserRepo struct {
	mu     sync.Mutex
	store  map[string]*model.User // by ID
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, _ repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		m.nextID++
		u.ID = fmt.Sprintf("user-%d", m.nextID)
	}
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByUsername(ctx context.Context, _ repository.Tx, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) FindByEmail(ctx context.Context, _ repository.Tx, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// fakePanelClient scripts upstream panel answers for tests.
type fakePanelClient struct {
	services   []adapter.UpstreamService
	fetchErr   error
	placedID   string
	placeErr   error
	status     *adapter.UpstreamOrderStatus
	statusErr  error
	placeCalls int
}

func (f *fakePanelClient) FetchServices(ctx context.Context, _ *model.APIProvider) ([]adapter.UpstreamService, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.services, nil
}

func (f *fakePanelClient) PlaceOrder(ctx context.Context, _ *model.APIProvider, _, _ string, _ int) (string, error) {
	f.placeCalls++
	if f.placeErr != nil {
		return "", f.placeErr
	}
	return f.placedID, nil
}

func (f *fakePanelClient) OrderStatus(ctx context.Context, _ *model.APIProvider, _ string) (*adapter.UpstreamOrderStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}
