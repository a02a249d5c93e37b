package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/bissquit/stockroom/internal/domain"
	"github.com/bissquit/stockroom/internal/identity/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	users         map[string]*domain.User
	nextID        string
	createUserErr error
	storeAccessed bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:  make(map[string]*domain.User),
		nextID: "3f8e0a9c-1b2d-4e5f-8a9b-0c1d2e3f4a5b",
	}
}

func (m *mockRepository) CreateUser(_ context.Context, user *domain.User) error {
	m.storeAccessed = true
	if m.createUserErr != nil {
		return m.createUserErr
	}
	user.ID = m.nextID
	m.users[user.Email] = user
	return nil
}

func (m *mockRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.storeAccessed = true
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.storeAccessed = true
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) ListUsers(_ context.Context) ([]domain.User, error) {
	m.storeAccessed = true
	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockRepository) UpdateUser(_ context.Context, user *domain.User) error {
	m.storeAccessed = true
	for email, u := range m.users {
		if u.ID == user.ID {
			delete(m.users, email)
			m.users[user.Email] = user
			return nil
		}
	}
	return ErrUserNotFound
}

func (m *mockRepository) DeleteUser(_ context.Context, id string) error {
	m.storeAccessed = true
	for email, u := range m.users {
		if u.ID == id {
			delete(m.users, email)
			return nil
		}
	}
	return ErrUserNotFound
}

func (m *mockRepository) AdminExists(_ context.Context) (bool, error) {
	m.storeAccessed = true
	for _, u := range m.users {
		if u.Role == domain.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) CreateAdminIfNone(_ context.Context, user *domain.User) error {
	m.storeAccessed = true
	for _, u := range m.users {
		if u.Role == domain.RoleAdmin {
			return ErrAdminExists
		}
	}
	if m.createUserErr != nil {
		return m.createUserErr
	}
	user.ID = m.nextID
	m.users[user.Email] = user
	return nil
}

// mockAuthenticator implements Authenticator for testing.
type mockAuthenticator struct {
	issued map[string]*domain.User
}

func newMockAuthenticator() *mockAuthenticator {
	return &mockAuthenticator{issued: make(map[string]*domain.User)}
}

func (m *mockAuthenticator) Issue(user *domain.User) (string, error) {
	token := "token-for-" + user.Email
	m.issued[token] = user
	return token, nil
}

func (m *mockAuthenticator) Verify(token string) (*jwt.Claims, error) {
	user, ok := m.issued[token]
	if !ok {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return &jwt.Claims{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

func seedUser(t *testing.T, repo *mockRepository, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	user := &domain.User{
		ID:       "11111111-2222-3333-4444-555555555555",
		Username: "seeded",
		Email:    email,
		Password: hash,
		Role:     role,
	}
	repo.users[email] = user
	return user
}

func TestLogin_Success(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "manager@example.com", "password123", domain.RoleManager)
	service := NewService(repo, newMockAuthenticator())

	token, role, err := service.Login(context.Background(), "manager@example.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, "token-for-manager@example.com", token)
	assert.Equal(t, domain.RoleManager, role)
}

func TestLogin_NormalizesEmail(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "manager@example.com", "password123", domain.RoleManager)
	service := NewService(repo, newMockAuthenticator())

	_, role, err := service.Login(context.Background(), "  Manager@Example.COM ", "password123")

	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, role)
}

func TestLogin_UnknownEmail(t *testing.T) {
	service := NewService(newMockRepository(), newMockAuthenticator())

	token, _, err := service.Login(context.Background(), "ghost@example.com", "password123")

	assert.Empty(t, token)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "manager@example.com", "password123", domain.RoleManager)
	service := NewService(repo, newMockAuthenticator())

	token, _, err := service.Login(context.Background(), "manager@example.com", "wrongpass")

	assert.Empty(t, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_RoleFromClaims(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "user@example.com", "password123", domain.RoleUser)
	auth := newMockAuthenticator()
	service := NewService(repo, auth)

	token, _, err := service.Login(context.Background(), "user@example.com", "password123")
	require.NoError(t, err)

	userID, role, err := service.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, domain.RoleUser, role)

	_, _, err = service.ValidateToken(context.Background(), "forged-token")
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestBootstrapAdmin_FirstCallSucceeds(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, newMockAuthenticator())

	user, err := service.BootstrapAdmin(context.Background(), BootstrapInput{
		Username: "root",
		Email:    "admin@example.com",
		Password: "admin-password",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.NotEqual(t, "admin-password", user.Password, "password must be stored hashed")
	assert.True(t, VerifyPassword("admin-password", user.Password))
}

func TestBootstrapAdmin_RefusedOnceAdminExists(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "admin@example.com", "admin-password", domain.RoleAdmin)
	service := NewService(repo, newMockAuthenticator())

	user, err := service.BootstrapAdmin(context.Background(), BootstrapInput{
		Username: "other",
		Email:    "other@example.com",
		Password: "other-password",
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrAdminExists)
}

// staleCheckRepository reports no admin even when one exists, modeling
// a second bootstrap that passed the pre-check before the first one
// committed.
type staleCheckRepository struct {
	*mockRepository
}

func (r *staleCheckRepository) AdminExists(_ context.Context) (bool, error) {
	return false, nil
}

func TestBootstrapAdmin_ConcurrentBootstrapLoses(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "admin@example.com", "admin-password", domain.RoleAdmin)
	service := NewService(&staleCheckRepository{repo}, newMockAuthenticator())

	user, err := service.BootstrapAdmin(context.Background(), BootstrapInput{
		Username: "late",
		Email:    "late@example.com",
		Password: "late-password",
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrAdminExists)
	assert.Len(t, repo.users, 1, "losing bootstrap must not insert a second admin")
}

func TestRegisterUser_Success(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, newMockAuthenticator())

	user, err := service.RegisterUser(context.Background(), RegisterInput{
		Username: "clerk",
		Email:    "Clerk@Example.com",
		Password: "password123",
		Role:     domain.RoleUser,
	})

	require.NoError(t, err)
	assert.Equal(t, "clerk@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.True(t, VerifyPassword("password123", user.Password))
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "clerk@example.com", "password123", domain.RoleUser)
	service := NewService(repo, newMockAuthenticator())

	user, err := service.RegisterUser(context.Background(), RegisterInput{
		Username: "clerk2",
		Email:    "clerk@example.com",
		Password: "password456",
		Role:     domain.RoleUser,
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterUser_InvalidRole(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, newMockAuthenticator())

	user, err := service.RegisterUser(context.Background(), RegisterInput{
		Username: "clerk",
		Email:    "clerk@example.com",
		Password: "password123",
		Role:     domain.Role("superuser"),
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.False(t, repo.storeAccessed, "invalid role must be rejected before any store access")
}

func TestRegisterUser_CreateFails(t *testing.T) {
	repo := newMockRepository()
	repo.createUserErr = errors.New("database error")
	service := NewService(repo, newMockAuthenticator())

	user, err := service.RegisterUser(context.Background(), RegisterInput{
		Username: "clerk",
		Email:    "clerk@example.com",
		Password: "password123",
		Role:     domain.RoleUser,
	})

	assert.Nil(t, user)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailExists)
}

func TestGetUser_InvalidID(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, newMockAuthenticator())

	user, err := service.GetUser(context.Background(), "not-a-uuid")

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrInvalidUserID)
	assert.False(t, repo.storeAccessed, "malformed id must be rejected before any store access")
}

func TestUpdateUser_AlwaysHashesPassword(t *testing.T) {
	repo := newMockRepository()
	seeded := seedUser(t, repo, "clerk@example.com", "oldpassword", domain.RoleUser)
	service := NewService(repo, newMockAuthenticator())

	updated, err := service.UpdateUser(context.Background(), seeded.ID, UpdateInput{
		Password: "newpassword1",
	})

	require.NoError(t, err)
	assert.NotEqual(t, "newpassword1", updated.Password)
	assert.True(t, VerifyPassword("newpassword1", updated.Password))
	assert.False(t, VerifyPassword("oldpassword", updated.Password))
}

func TestUpdateUser_PartialFields(t *testing.T) {
	repo := newMockRepository()
	seeded := seedUser(t, repo, "clerk@example.com", "password123", domain.RoleUser)
	service := NewService(repo, newMockAuthenticator())

	updated, err := service.UpdateUser(context.Background(), seeded.ID, UpdateInput{
		Role: domain.RoleManager,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, updated.Role)
	assert.Equal(t, "clerk@example.com", updated.Email)
	assert.Equal(t, "seeded", updated.Username)
	assert.True(t, VerifyPassword("password123", updated.Password), "password unchanged when absent")
}

func TestUpdateUser_InvalidRole(t *testing.T) {
	repo := newMockRepository()
	seeded := seedUser(t, repo, "clerk@example.com", "password123", domain.RoleUser)
	service := NewService(repo, newMockAuthenticator())

	updated, err := service.UpdateUser(context.Background(), seeded.ID, UpdateInput{
		Role: domain.Role("root"),
	})

	assert.Nil(t, updated)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestDeleteUser(t *testing.T) {
	repo := newMockRepository()
	seeded := seedUser(t, repo, "clerk@example.com", "password123", domain.RoleUser)
	service := NewService(repo, newMockAuthenticator())

	require.NoError(t, service.DeleteUser(context.Background(), seeded.ID))
	assert.ErrorIs(t, service.DeleteUser(context.Background(), seeded.ID), ErrUserNotFound)
	assert.ErrorIs(t, service.DeleteUser(context.Background(), "nope"), ErrInvalidUserID)
}
