package identity

import (
	"context"

	"github.com/bissquit/stockroom/internal/domain"
)

// Repository defines the interface for identity data operations.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error
	AdminExists(ctx context.Context) (bool, error)

	// CreateAdminIfNone inserts the user only while no admin record
	// exists, in one statement, so two concurrent bootstraps cannot
	// both succeed. Returns ErrAdminExists for the loser.
	CreateAdminIfNone(ctx context.Context, user *domain.User) error
}
