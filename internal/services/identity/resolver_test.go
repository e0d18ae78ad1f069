package identity_test

import (
	"context"
	"testing"

	"circle_backend/internal/appErrors"
	"circle_backend/internal/auth"
	"circle_backend/internal/config"
	"circle_backend/internal/models"
	"circle_backend/internal/repositories"
	"circle_backend/internal/services/identity"

	"github.com/stretchr/testify/assert"
)

type stubUserStore struct {
	users map[string]*models.User
}

func (s *stubUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return user, nil
}

type stubMembershipStore struct {
	rooms map[string][]string
}

func (s *stubMembershipStore) GetRoomIDs(_ context.Context, userID string) ([]string, error) {
	return s.rooms[userID], nil
}

func testConfig(t *testing.T) {
	t.Helper()
	prev := config.AppConfig
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTL = 60
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = prev })
}

func newResolverFixture() *identity.Resolver {
	users := &stubUserStore{users: map[string]*models.User{
		"alice": {
			BaseModel: models.BaseModel{ID: "alice"},
			Email:     "alice@example.test",
			Status:    models.UserStatusActive,
		},
		"frozen": {
			BaseModel: models.BaseModel{ID: "frozen"},
			Email:     "frozen@example.test",
			Status:    models.UserStatusSuspended,
		},
	}}
	memberships := &stubMembershipStore{rooms: map[string][]string{
		"alice": {"room-1", "room-2"},
	}}
	return identity.NewResolver(users, memberships)
}

func TestResolver_Resolve(t *testing.T) {
	testConfig(t)
	resolver := newResolverFixture()

	token, err := auth.GenerateToken("alice", "member")
	assert.NoError(t, err)

	session, err := resolver.Resolve(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, "alice", session.UserID)
	assert.Equal(t, []string{"room-1", "room-2"}, session.RoomIDs)
}

func TestResolver_ResolveEmptyCredential(t *testing.T) {
	testConfig(t)
	resolver := newResolverFixture()

	_, err := resolver.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, appErrors.ErrUnauthenticated)
}

func TestResolver_ResolveMalformedToken(t *testing.T) {
	testConfig(t)
	resolver := newResolverFixture()

	_, err := resolver.Resolve(context.Background(), "not-a-jwt")

	var appErr *appErrors.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.CodeInvalidCredential, appErr.Code)
}

func TestResolver_ResolveUnknownUser(t *testing.T) {
	testConfig(t)
	resolver := newResolverFixture()

	token, err := auth.GenerateToken("ghost", "member")
	assert.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), token)

	var appErr *appErrors.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.CodeInvalidCredential, appErr.Code)
}

func TestResolver_ResolveInactiveUser(t *testing.T) {
	testConfig(t)
	resolver := newResolverFixture()

	token, err := auth.GenerateToken("frozen", "member")
	assert.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, appErrors.ErrAccountInactive)
}

func TestResolver_ResolveUserWithoutRooms(t *testing.T) {
	testConfig(t)
	users := &stubUserStore{users: map[string]*models.User{
		"loner": {
			BaseModel: models.BaseModel{ID: "loner"},
			Email:     "loner@example.test",
			Status:    models.UserStatusActive,
		},
	}}
	resolver := identity.NewResolver(users, &stubMembershipStore{rooms: map[string][]string{}})

	token, err := auth.GenerateToken("loner", "member")
	assert.NoError(t, err)

	session, err := resolver.Resolve(context.Background(), token)
	assert.NoError(t, err)
	assert.Empty(t, session.RoomIDs, "пользователь без комнат подключается без подписок")
}
