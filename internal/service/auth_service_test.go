package service

import (
	"context"
	"testing"
	"time"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/logger"
	"gym360/backend/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, name string) error {
	return m.Called(ctx, id, name).Error(0)
}

func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *mockUserRepo) SetImageKey(ctx context.Context, id primitive.ObjectID, key string) error {
	return m.Called(ctx, id, key).Error(0)
}

func newTestAuthService(users repository.UserRepository, profiles repository.ProfileRepository) AuthService {
	return NewAuthService(users, profiles, testSecret, time.Hour, logger.Discard())
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegister_CreatesUserAndProfile(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserRepo)
	profiles := newMemProfiles()
	newID := primitive.NewObjectID()

	users.On("GetByEmail", ctx, "coach@gym360.io").Return(nil, repository.ErrNotFound)
	users.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "coach@gym360.io" && u.Role == domain.RoleCoach &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")) == nil
	})).Return(newID, nil)

	user, err := newTestAuthService(users, profiles).Register(ctx, "Sam", " Coach@Gym360.io ", "secret123", domain.RoleCoach)
	require.NoError(t, err)

	assert.Equal(t, newID, user.ID)
	assert.Empty(t, user.PasswordHash)
	assert.Len(t, profiles.coaches, 1)
	assert.Empty(t, profiles.clients)
	users.AssertExpectations(t)
}

func TestRegister_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("admin role is not self-service", func(t *testing.T) {
		_, err := newTestAuthService(new(mockUserRepo), newMemProfiles()).Register(ctx, "A", "a@b.c", "secret123", domain.RoleAdmin)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := newTestAuthService(new(mockUserRepo), newMemProfiles()).Register(ctx, "A", "a@b.c", "short", domain.RoleClient)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("existing email", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("GetByEmail", ctx, "a@b.c").Return(&domain.User{Email: "a@b.c"}, nil)
		_, err := newTestAuthService(users, newMemProfiles()).Register(ctx, "A", "a@b.c", "secret123", domain.RoleClient)
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unique index race", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("GetByEmail", ctx, "a@b.c").Return(nil, repository.ErrNotFound)
		users.On("Create", ctx, mock.Anything).Return(primitive.NilObjectID, repository.ErrDuplicate)
		_, err := newTestAuthService(users, newMemProfiles()).Register(ctx, "A", "a@b.c", "secret123", domain.RoleClient)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserRepo)
	id := primitive.NewObjectID()
	users.On("GetByEmail", ctx, "c@gym360.io").Return(&domain.User{
		ID: id, Email: "c@gym360.io", Role: domain.RoleClient, PasswordHash: hashed(t, "secret123"),
	}, nil)

	token, user, err := newTestAuthService(users, newMemProfiles()).Login(ctx, "c@gym360.io", "secret123")
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, id.Hex(), claims.UserID)
	assert.Equal(t, domain.RoleClient, claims.Role)
}

func TestLogin_Failures(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserRepo)
	users.On("GetByEmail", ctx, "c@gym360.io").Return(&domain.User{PasswordHash: hashed(t, "secret123")}, nil)
	users.On("GetByEmail", ctx, "ghost@gym360.io").Return(nil, repository.ErrNotFound)
	users.On("GetByEmail", ctx, "down@gym360.io").Return(nil, errStoreDown)
	svc := newTestAuthService(users, newMemProfiles())

	_, _, err := svc.Login(ctx, "c@gym360.io", "wrong-password")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.Login(ctx, "ghost@gym360.io", "secret123")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = svc.Login(ctx, "down@gym360.io", "secret123")
	assert.ErrorIs(t, err, ErrStore)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing admin", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("GetByEmail", ctx, "admin@gym360.io").Return(nil, repository.ErrNotFound).Twice()
		users.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Role == domain.RoleAdmin && u.Name == "Admin"
		})).Return(primitive.NewObjectID(), nil).Once()

		admin, err := newTestAuthService(users, newMemProfiles()).EnsureAdmin(ctx, "", "admin@gym360.io", "secret123")
		require.NoError(t, err)
		assert.True(t, admin.IsAdmin())
		users.AssertExpectations(t)
	})

	t.Run("existing admin is kept", func(t *testing.T) {
		users := new(mockUserRepo)
		existing := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleAdmin}
		users.On("GetByEmail", ctx, "admin@gym360.io").Return(existing, nil)

		admin, err := newTestAuthService(users, newMemProfiles()).EnsureAdmin(ctx, "Root", "admin@gym360.io", "secret123")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, admin.ID)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("email held by another role", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("GetByEmail", ctx, "admin@gym360.io").Return(&domain.User{Role: domain.RoleCoach}, nil)

		_, err := newTestAuthService(users, newMemProfiles()).EnsureAdmin(ctx, "Root", "admin@gym360.io", "secret123")
		assert.ErrorIs(t, err, ErrConflict)
	})
}
