package service_test

import (
	"context"
	"sync"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	mu      sync.Mutex
	slots   map[string][]byte
	loadErr error
}

func newMockStore() *mockStore {
	return &mockStore{slots: map[string][]byte{}}
}

func (m *mockStore) Save(_ context.Context, slot string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = append([]byte(nil), payload...)
	return nil
}

func (m *mockStore) Load(ctx context.Context, slot string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.slots[slot], nil
}

func (m *mockStore) Clear(_ context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slot)
	return nil
}

func (m *mockStore) setLoadErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *mockStore) has(slot string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.slots[slot]
	return ok
}

type mockSubmitter struct {
	err      error
	received []domain.PlanDraft
}

func (m *mockSubmitter) SubmitPlan(_ context.Context, d domain.PlanDraft) error {
	m.received = append(m.received, d)
	return m.err
}

type mockCategoryBackend struct {
	mu         sync.Mutex
	page       *domain.Page[domain.Category]
	subs       map[int64]*domain.CategoryWithSubs
	listErr    error
	subsErr    error
	listCalls  int
	subsCalls  int
	mutations  int
	lastCreate *domain.CategoryInput
}

func (m *mockCategoryBackend) ListCategories(_ context.Context, _ domain.CategoryQuery) (*domain.Page[domain.Category], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return m.page, m.listErr
}

func (m *mockCategoryBackend) GetCategoryWithSubs(_ context.Context, id int64) (*domain.CategoryWithSubs, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subsCalls++
	if m.subsErr != nil {
		return nil, m.subsErr
	}
	if c, ok := m.subs[id]; ok {
		return c, nil
	}
	return nil, &domain.ErrNotFound{Resource: "category", ID: "missing"}
}

func (m *mockCategoryBackend) CreateCategory(_ context.Context, in *domain.CategoryInput) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations++
	m.lastCreate = in
	return &domain.Category{ID: 99, Name: in.Name, Color: in.Color, Active: in.Active}, nil
}

func (m *mockCategoryBackend) UpdateCategory(_ context.Context, id int64, in *domain.CategoryInput) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations++
	return &domain.Category{ID: id, Name: in.Name, Color: in.Color, Active: in.Active}, nil
}

func (m *mockCategoryBackend) DeleteCategory(_ context.Context, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations++
	return nil
}

func (m *mockCategoryBackend) CreateSubcategory(_ context.Context, cid int64, in *domain.SubcategoryInput) (*domain.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations++
	return &domain.Subcategory{ID: 1, CategoryID: cid, Name: in.Name, Active: in.Active, Kind: in.Kind}, nil
}

func (m *mockCategoryBackend) UpdateSubcategory(_ context.Context, cid, subID int64, in *domain.SubcategoryInput) (*domain.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations++
	return &domain.Subcategory{ID: subID, CategoryID: cid, Name: in.Name, Active: in.Active, Kind: in.Kind}, nil
}

func (m *mockCategoryBackend) DeleteSubcategory(_ context.Context, _, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations++
	return nil
}

type mockAuthBackend struct {
	token       string
	loginErr    error
	registerErr error
	registered  *domain.RegisterRequest
}

func (m *mockAuthBackend) Login(_ context.Context, _ *domain.LoginRequest) (string, error) {
	return m.token, m.loginErr
}

func (m *mockAuthBackend) Register(_ context.Context, req *domain.RegisterRequest) error {
	m.registered = req
	return m.registerErr
}

type mockDashboard struct {
	summary *domain.DashboardSummary
	err     error
}

func (m *mockDashboard) GetDashboard(_ context.Context) (*domain.DashboardSummary, error) {
	return m.summary, m.err
}

func userCtx(userID string) context.Context {
	return domain.WithSession(context.Background(), domain.Session{UserID: userID, AccessToken: "tok"})
}
