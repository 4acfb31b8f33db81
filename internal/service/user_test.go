package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ColdVault/config"
	"ColdVault/internal/apperr"
	"ColdVault/model"
	"ColdVault/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uint64]*model.User)}
}

func (s *memUserStore) Create(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u.ID = s.nextID
	s.users[u.ID] = u
	return nil
}

func (s *memUserStore) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user %d not found", id)
	}
	return u, nil
}

func (s *memUserStore) GetByName(ctx context.Context, name string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.UserName == name {
			return u, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "user %s not found", name)
}

func (s *memUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "user with email %s not found", email)
}

func (s *memUserStore) Update(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *memCache) firstTokenWithPrefix(prefix string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.data {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			return key[len(prefix):]
		}
	}
	return ""
}

func newUsersFixture() (*Users, *memUserStore, *memCache) {
	store := newMemUserStore()
	cache := newMemCache()
	return NewUsers(store, cache), store, cache
}

var _ utils.Cache = (*memCache)(nil)

func TestRegisterActivateLogin(t *testing.T) {
	svc, store, cache := newUsersFixture()
	ctx := context.Background()

	prevMax := config.AppConfig.MaxFileSize
	config.AppConfig.MaxFileSize = 5 << 30
	defer func() { config.AppConfig.MaxFileSize = prevMax }()

	u, err := svc.Register(ctx, "alice", "hunter2hunter2", "alice@example.com")
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.NotEqual(t, "hunter2hunter2", u.Password)
	assert.Equal(t, uint64(5<<30), u.TotalSpace)

	// login before activation fails
	_, _, err = svc.Login(ctx, "alice", "hunter2hunter2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not activated")

	token := cache.firstTokenWithPrefix("activate:")
	require.NotEmpty(t, token)
	require.NoError(t, svc.Activate(ctx, token))

	stored, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)

	jwt, logged, err := svc.Login(ctx, "alice", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, jwt)
	assert.Equal(t, u.ID, logged.ID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _, _ := newUsersFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob", "password123", "bob@example.com")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "bob", "password123", "other@example.com")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
	assert.Contains(t, err.Error(), "taken")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newUsersFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol", "password123", "carol@example.com")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "carol2", "password123", "carol@example.com")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
}

func TestActivateBadToken(t *testing.T) {
	svc, _, _ := newUsersFixture()
	err := svc.Activate(context.Background(), "no-such-token")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, cache := newUsersFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, "dave", "password123", "dave@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.Activate(ctx, cache.firstTokenWithPrefix("activate:")))

	_, _, err = svc.Login(ctx, "dave", "wrong-password")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	_, _, err = svc.Login(ctx, "nobody", "password123")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
}
