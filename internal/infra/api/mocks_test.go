//go:build !integration

package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"smm-reseller/internal/domain"
	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/adapter"
	"smm-reseller/internal/domain/ports/repository"
)

// In-memory repositories backing the HTTP tests. Only the paths the
// handlers exercise are implemented with care; everything stays behind
// one mutex per repo.

type txManagerStub struct{}

func (t *txManagerStub) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

type keyRepoStub struct {
	mu     sync.Mutex
	store  map[string]*model.RedemptionKey
	nextID int
}

func newKeyRepoStub() *keyRepoStub { return &keyRepoStub{store: map[string]*model.RedemptionKey{}} }

func (m *keyRepoStub) Save(_ context.Context, _ repository.Tx, k *model.RedemptionKey) error {
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

func (m *keyRepoStub) FindByValue(_ context.Context, _ repository.Tx, v string) (*model.RedemptionKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.store[v]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *k
	return &cp, nil
}

func (m *keyRepoStub) ListAll(_ context.Context, _ repository.Tx) ([]*model.RedemptionKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.RedemptionKey, 0, len(m.store))
	for _, k := range m.store {
		cp := *k
		out = append(out, &cp)
	}
	return out, nil
}

func (m *keyRepoStub) ConsumeUse(_ context.Context, _ repository.Tx, v string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.store[v]
	if !ok || !k.IsActive || k.UsageCount >= k.UsageLimit {
		return domain.ErrLimitReached
	}
	k.UsageCount++
	return nil
}

func (m *keyRepoStub) Delete(_ context.Context, _ repository.Tx, id string) error {
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

type serviceRepoStub struct {
	mu     sync.Mutex
	store  map[string]*model.Service
	nextID int
}

func newServiceRepoStub() *serviceRepoStub { return &serviceRepoStub{store: map[string]*model.Service{}} }

func (m *serviceRepoStub) Save(_ context.Context, _ repository.Tx, s *model.Service) error {
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

func (m *serviceRepoStub) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *serviceRepoStub) ListAll(_ context.Context, _ repository.Tx) ([]*model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Service, 0, len(m.store))
	for _, s := range m.store {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *serviceRepoStub) ListByProvider(_ context.Context, _ repository.Tx, providerID string) ([]*model.Service, error) {
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

func (m *serviceRepoStub) UpsertBatch(_ context.Context, _ repository.Tx, services []*model.Service) (repository.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res repository.UpsertResult
	for _, s := range services {
		found := false
		for id, cur := range m.store {
			if cur.ProviderID == s.ProviderID && cur.ExternalServiceID == s.ExternalServiceID {
				cp := *s
				cp.ID = id
				m.store[id] = &cp
				res.Updated++
				found = true
				break
			}
		}
		if !found {
			m.nextID++
			cp := *s
			cp.ID = fmt.Sprintf("svc-%d", m.nextID)
			m.store[cp.ID] = &cp
			res.Created++
		}
	}
	return res, nil
}

func (m *serviceRepoStub) Delete(_ context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

type orderRepoStub struct {
	mu     sync.Mutex
	orders []*model.Order
}

func newOrderRepoStub() *orderRepoStub { return &orderRepoStub{} }

func (m *orderRepoStub) Save(_ context.Context, _ repository.Tx, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	cp.ID = fmt.Sprintf("row-%d", len(m.orders)+1)
	m.orders = append(m.orders, &cp)
	return nil
}

func (m *orderRepoStub) FindByOrderID(_ context.Context, _ repository.Tx, orderID string) (*model.Order, error) {
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

func (m *orderRepoStub) ListAll(_ context.Context, _ repository.Tx) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Order, 0, len(m.orders))
	for _, o := range m.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (m *orderRepoStub) FindLatestByKey(_ context.Context, _ repository.Tx, keyID string) (*model.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Order
	count := 0
	for _, o := range m.orders {
		if o.KeyID != nil && *o.KeyID == keyID {
			count++
			latest = o
		}
	}
	if latest == nil {
		return nil, 0, domain.ErrNotFound
	}
	cp := *latest
	return &cp, count, nil
}

func (m *orderRepoStub) UpdateStatus(_ context.Context, _ repository.Tx, orderID string, status model.OrderStatus, startCount, remains *int, externalOrderID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderID == orderID {
			o.Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *orderRepoStub) ListUnfinishedOlderThan(_ context.Context, _ repository.Tx, cutoff time.Time, limit int) ([]*model.Order, error) {
	return nil, nil
}

type activityRepoStub struct {
	mu      sync.Mutex
	entries []*model.ActivityLog
}

func newActivityRepoStub() *activityRepoStub { return &activityRepoStub{} }

func (m *activityRepoStub) Append(_ context.Context, _ repository.Tx, e *model.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.ID = fmt.Sprintf("log-%d", len(m.entries)+1)
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *activityRepoStub) ListRecent(_ context.Context, _ repository.Tx, limit int) ([]*model.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.ActivityLog, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.entries[i]
		out = append(out, &cp)
	}
	return out, nil
}

type providerRepoStub struct {
	mu     sync.Mutex
	store  map[string]*model.APIProvider
	nextID int
}

func newProviderRepoStub() *providerRepoStub {
	return &providerRepoStub{store: map[string]*model.APIProvider{}}
}

func (m *providerRepoStub) Save(_ context.Context, _ repository.Tx, p *model.APIProvider) error {
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

func (m *providerRepoStub) FindByID(_ context.Context, _ repository.Tx, id string) (*model.APIProvider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *providerRepoStub) ListAll(_ context.Context, _ repository.Tx) ([]*model.APIProvider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.APIProvider, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *providerRepoStub) Delete(_ context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

type sessionRepoStub struct {
	mu    sync.Mutex
	store map[string]*model.AdminSession
}

func newSessionRepoStub() *sessionRepoStub {
	return &sessionRepoStub{store: map[string]*model.AdminSession{}}
}

func (m *sessionRepoStub) Save(_ context.Context, _ repository.Tx, s *model.AdminSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.SessionToken] = &cp
	return nil
}

func (m *sessionRepoStub) FindByToken(_ context.Context, _ repository.Tx, token string) (*model.AdminSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *sessionRepoStub) Delete(_ context.Context, _ repository.Tx, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, token)
	return nil
}

type userRepoStub struct {
	mu     sync.Mutex
	store  map[string]*model.User
	nextID int
}

func newUserRepoStub() *userRepoStub { return &userRepoStub{store: map[string]*model.User{}} }

func (m *userRepoStub) Save(_ context.Context, _ repository.Tx, u *model.User) error {
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

func (m *userRepoStub) FindByID(_ context.Context, _ repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *userRepoStub) FindByUsername(_ context.Context, _ repository.Tx, username string) (*model.User, error) {
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

func (m *userRepoStub) FindByEmail(_ context.Context, _ repository.Tx, email string) (*model.User, error) {
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

// fakeRedis backs the rate limiter with an in-process counter map.
type fakeRedis struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newFakeRedis() *fakeRedis { return &fakeRedis{counters: map[string]int64{}} }

func (f *fakeRedis) Ping(context.Context) error { return nil }

func (f *fakeRedis) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (f *fakeRedis) Get(context.Context, string) (string, error) { return "", domain.ErrNotFound }

func (f *fakeRedis) Incr(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[key]++
	return f.counters[key], nil
}

func (f *fakeRedis) Expire(context.Context, string, time.Duration) error { return nil }

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.counters, k)
	}
	return nil
}

func (f *fakeRedis) Close() error { return nil }

type panelClientStub struct {
	services []adapter.UpstreamService
	fetchErr error
}

func (p *panelClientStub) FetchServices(context.Context, *model.APIProvider) ([]adapter.UpstreamService, error) {
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	return p.services, nil
}

func (p *panelClientStub) PlaceOrder(context.Context, *model.APIProvider, string, string, int) (string, error) {
	return "ext-1", nil
}

func (p *panelClientStub) OrderStatus(context.Context, *model.APIProvider, string) (*adapter.UpstreamOrderStatus, error) {
	return &adapter.UpstreamOrderStatus{Status: "Completed"}, nil
}
