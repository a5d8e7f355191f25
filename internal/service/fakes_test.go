package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/lock"
	"github.com/prn-tf/recipebook/internal/repository"
)

// In-memory repositories. They copy on the way in and out so tests see the
// same aliasing behaviour as a real store.

type memUserRepo struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	getByIDs int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return domain.ErrDuplicateIdentity
		}
	}
	user.ID = uuid.NewString()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) GetByIDs(_ context.Context, ids []string) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByIDs++
	var out []*domain.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Username == username })
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Email == email })
}

func (m *memUserRepo) List(_ context.Context, opts repository.ListOptions) (*repository.ListResult[domain.User], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.User
	for _, u := range m.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if opts.Offset < len(all) {
		all = all[opts.Offset:]
	} else {
		all = nil
	}
	if len(all) > opts.Limit {
		all = all[:opts.Limit]
	}
	return &repository.ListResult[domain.User]{Items: all, Total: total, HasMore: int64(opts.Offset+len(all)) < total}, nil
}

func (m *memUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	return err == nil, nil
}

func (m *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

type memRecipeRepo struct {
	mu      sync.Mutex
	recipes map[string]*domain.Recipe
	order   []string
}

func newMemRecipeRepo() *memRecipeRepo {
	return &memRecipeRepo{recipes: make(map[string]*domain.Recipe)}
}

func copyRecipe(r *domain.Recipe) *domain.Recipe {
	cp := *r
	cp.Ingredients = append([]string(nil), r.Ingredients...)
	return &cp
}

func (m *memRecipeRepo) Create(_ context.Context, recipe *domain.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recipe.ID = uuid.NewString()
	m.recipes[recipe.ID] = copyRecipe(recipe)
	m.order = append(m.order, recipe.ID)
	return nil
}

func (m *memRecipeRepo) GetByID(_ context.Context, id string) (*domain.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.recipes[id]; ok {
		return copyRecipe(r), nil
	}
	return nil, domain.ErrRecipeNotFound
}

func (m *memRecipeRepo) GetByIDs(_ context.Context, ids []string) ([]*domain.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Recipe
	for _, id := range ids {
		if r, ok := m.recipes[id]; ok {
			out = append(out, copyRecipe(r))
		}
	}
	return out, nil
}

// newestFirst walks insertion order backwards.
func (m *memRecipeRepo) newestFirst(match func(*domain.Recipe) bool) []*domain.Recipe {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Recipe{}
	for i := len(m.order) - 1; i >= 0; i-- {
		if r, ok := m.recipes[m.order[i]]; ok && match(r) {
			out = append(out, copyRecipe(r))
		}
	}
	return out
}

func (m *memRecipeRepo) List(_ context.Context) ([]*domain.Recipe, error) {
	return m.newestFirst(func(*domain.Recipe) bool { return true }), nil
}

func (m *memRecipeRepo) Search(_ context.Context, query string) ([]*domain.Recipe, error) {
	return m.newestFirst(func(r *domain.Recipe) bool { return r.Matches(query) }), nil
}

func (m *memRecipeRepo) Update(_ context.Context, recipe *domain.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[recipe.ID]; !ok {
		return domain.ErrRecipeNotFound
	}
	m.recipes[recipe.ID] = copyRecipe(recipe)
	return nil
}

func (m *memRecipeRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[id]; !ok {
		return domain.ErrRecipeNotFound
	}
	delete(m.recipes, id)
	return nil
}

type memCommentRepo struct {
	mu       sync.Mutex
	comments map[string]*domain.Comment
	order    []string
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{comments: make(map[string]*domain.Comment)}
}

func (m *memCommentRepo) Create(_ context.Context, c *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.NewString()
	cp := *c
	m.comments[c.ID] = &cp
	m.order = append(m.order, c.ID)
	return nil
}

func (m *memCommentRepo) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.comments[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrCommentNotFound
}

func (m *memCommentRepo) ListByRecipe(_ context.Context, recipeID string) ([]*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Comment{}
	for i := len(m.order) - 1; i >= 0; i-- {
		if c, ok := m.comments[m.order[i]]; ok && c.RecipeID == recipeID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memCommentRepo) Update(_ context.Context, c *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[c.ID]; !ok {
		return domain.ErrCommentNotFound
	}
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m *memCommentRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return domain.ErrCommentNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *memCommentRepo) DeleteByRecipe(_ context.Context, recipeID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.comments {
		if c.RecipeID == recipeID {
			delete(m.comments, id)
			n++
		}
	}
	return n, nil
}

type memSharingRepo struct {
	mu      sync.Mutex
	entries map[string]*domain.SharedRecipe
	order   []string
}

func newMemSharingRepo() *memSharingRepo {
	return &memSharingRepo{entries: make(map[string]*domain.SharedRecipe)}
}

func copyEntry(e *domain.SharedRecipe) *domain.SharedRecipe {
	cp := *e
	cp.SharedWith = append([]domain.ShareGrant{}, e.SharedWith...)
	return &cp
}

func (m *memSharingRepo) Create(_ context.Context, e *domain.SharedRecipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.entries {
		if existing.RecipeID == e.RecipeID && existing.OwnerID == e.OwnerID {
			return repository.ErrDuplicateKey
		}
	}
	e.ID = uuid.NewString()
	m.entries[e.ID] = copyEntry(e)
	m.order = append(m.order, e.ID)
	return nil
}

func (m *memSharingRepo) GetByID(_ context.Context, id string) (*domain.SharedRecipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		return copyEntry(e), nil
	}
	return nil, domain.ErrSharingNotFound
}

func (m *memSharingRepo) GetByRecipeAndOwner(_ context.Context, recipeID, ownerID string) (*domain.SharedRecipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.RecipeID == recipeID && e.OwnerID == ownerID {
			return copyEntry(e), nil
		}
	}
	return nil, domain.ErrSharingNotFound
}

func (m *memSharingRepo) list(match func(*domain.SharedRecipe) bool) []*domain.SharedRecipe {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.SharedRecipe{}
	for i := len(m.order) - 1; i >= 0; i-- {
		if e, ok := m.entries[m.order[i]]; ok && match(e) {
			out = append(out, copyEntry(e))
		}
	}
	return out
}

func (m *memSharingRepo) ListBySharedUser(_ context.Context, userID string) ([]*domain.SharedRecipe, error) {
	return m.list(func(e *domain.SharedRecipe) bool { return e.IsSharedWith(userID) }), nil
}

func (m *memSharingRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.SharedRecipe, error) {
	return m.list(func(e *domain.SharedRecipe) bool { return e.OwnerID == ownerID }), nil
}

func (m *memSharingRepo) Update(_ context.Context, e *domain.SharedRecipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		return domain.ErrSharingNotFound
	}
	m.entries[e.ID] = copyEntry(e)
	return nil
}

func (m *memSharingRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return domain.ErrSharingNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *memSharingRepo) DeleteByRecipe(_ context.Context, recipeID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.entries {
		if e.RecipeID == recipeID {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *memSharingRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type testRepos struct {
	*repository.Repositories
	users    *memUserRepo
	recipes  *memRecipeRepo
	comments *memCommentRepo
	sharing  *memSharingRepo
}

func newTestRepos() *testRepos {
	r := &testRepos{
		users:    newMemUserRepo(),
		recipes:  newMemRecipeRepo(),
		comments: newMemCommentRepo(),
		sharing:  newMemSharingRepo(),
	}
	r.Repositories = &repository.Repositories{
		User:    r.users,
		Recipe:  r.recipes,
		Comment: r.comments,
		Sharing: r.sharing,
	}
	return r
}

// MockUserRepository is a testify mock of repository.UserRepository for
// failure injection.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.User], error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListResult[domain.User]), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockImageCleaner records cascade image removals.
type MockImageCleaner struct {
	mock.Mock
}

func (m *MockImageCleaner) RemoveForRecipe(ctx context.Context, recipe *domain.Recipe) error {
	return m.Called(ctx, recipe).Error(0)
}

// failingCommentRepo fails DeleteByRecipe to exercise cascade logging.
type failingCommentRepo struct {
	*memCommentRepo
	err error
}

func (f *failingCommentRepo) DeleteByRecipe(context.Context, string) (int64, error) {
	return 0, f.err
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: make(map[string]int)}
}

func (c *countingRecorder) Event(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name]++
}

func (c *countingRecorder) get(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

func newTestLocker(t *testing.T) *lock.MemoryLocker {
	t.Helper()
	l := lock.NewMemoryLocker()
	t.Cleanup(l.Close)
	return l
}
