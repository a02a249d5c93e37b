// Package identity provides authentication and user management.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bissquit/stockroom/internal/domain"
	"github.com/bissquit/stockroom/internal/identity/jwt"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Authenticator issues and verifies session tokens.
type Authenticator interface {
	Issue(user *domain.User) (string, error)
	Verify(token string) (*jwt.Claims, error)
}

// Service implements identity business logic.
type Service struct {
	repo Repository
	auth Authenticator
}

// NewService creates a new identity service.
func NewService(repo Repository, auth Authenticator) *Service {
	return &Service{repo: repo, auth: auth}
}

// Login verifies credentials and returns a session token with the
// user's role. Returns ErrUserNotFound for an unknown email and
// ErrInvalidCredentials for a password mismatch.
func (s *Service) Login(ctx context.Context, email, password string) (string, domain.Role, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", "", err
	}

	if !VerifyPassword(password, user.Password) {
		return "", "", ErrInvalidCredentials
	}

	token, err := s.auth.Issue(user)
	if err != nil {
		return "", "", fmt.Errorf("issue token: %w", err)
	}
	return token, user.Role, nil
}

// ValidateToken verifies a bearer token and returns the caller's
// identity and role. The role comes from the verified claims only;
// no store lookup happens, so a token stays authoritative until expiry.
func (s *Service) ValidateToken(_ context.Context, token string) (string, domain.Role, error) {
	claims, err := s.auth.Verify(token)
	if err != nil {
		return "", "", err
	}
	return claims.UserID, claims.Role, nil
}

// BootstrapInput is the input for first-admin bootstrap.
type BootstrapInput struct {
	Username string
	Email    string
	Password string
}

// BootstrapAdmin creates the first admin identity. It is the only
// unauthenticated write path and refuses with ErrAdminExists once any
// admin record is present, regardless of payload. The pre-check gives
// the common refusal a cheap path; the conditional insert decides the
// race when two bootstraps arrive at once.
func (s *Service) BootstrapAdmin(ctx context.Context, input BootstrapInput) (*domain.User, error) {
	exists, err := s.repo.AdminExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check admin exists: %w", err)
	}
	if exists {
		return nil, ErrAdminExists
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username: normalizeUsername(input.Username),
		Email:    normalizeEmail(input.Email),
		Password: hash,
		Role:     domain.RoleAdmin,
	}
	if err := s.repo.CreateAdminIfNone(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RegisterInput is the input for admin-initiated user registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// RegisterUser creates a user with the given role. The caller's own
// role has already been checked by the admin gate; the role here only
// sets the new user's role and must be a known one.
func (s *Service) RegisterUser(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if !input.Role.IsValid() {
		return nil, ErrInvalidRole
	}
	return s.createUser(ctx, input.Username, input.Email, input.Password, input.Role)
}

func (s *Service) createUser(ctx context.Context, username, email, password string, role domain.Role) (*domain.User, error) {
	email = normalizeEmail(email)

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username: normalizeUsername(username),
		Email:    email,
		Password: hash,
		Role:     role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns a user by id. The id is validated before any store
// access; a malformed id yields ErrInvalidUserID.
func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if err := validateUserID(id); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

// UpdateInput is the input for updating a user. Empty fields are left
// unchanged.
type UpdateInput struct {
	Username string
	Email    string
	Role     domain.Role
	Password string
}

// UpdateUser applies non-empty fields to the user. A new password is
// always hashed before storage.
func (s *Service) UpdateUser(ctx context.Context, id string, input UpdateInput) (*domain.User, error) {
	if err := validateUserID(id); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != "" {
		user.Username = normalizeUsername(input.Username)
	}
	if input.Email != "" {
		user.Email = normalizeEmail(input.Email)
	}
	if input.Role != "" {
		if !input.Role.IsValid() {
			return nil, ErrInvalidRole
		}
		user.Role = input.Role
	}
	if input.Password != "" {
		hash, err := HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user by id.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := validateUserID(id); err != nil {
		return err
	}
	return s.repo.DeleteUser(ctx, id)
}

func validateUserID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidUserID
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeUsername(username string) string {
	return norm.NFC.String(strings.TrimSpace(username))
}
