package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// CreateUserInput contains the parameters for adding a user to a tenant.
type CreateUserInput struct {
	Actor       domain.Actor // Acting admin
	Email       string       // Login email (required)
	DisplayName string       // Display name (optional)
	Role        domain.Role  // ADMIN or TECHNICIAN (required)
}

// CreateUserOutput contains the created user.
type CreateUserOutput struct {
	User *domain.User
}

// CreateUser adds a user to the admin's tenant.
type CreateUser struct {
	users  domain.UserRepository
	logger domain.Logger
}

// NewCreateUser creates a new CreateUser use case.
func NewCreateUser(users domain.UserRepository, logger domain.Logger) *CreateUser {
	return &CreateUser{
		users:  users,
		logger: loggerOrNop(logger),
	}
}

// Execute creates the user in the actor's tenant.
func (uc *CreateUser) Execute(ctx context.Context, in CreateUserInput) (*CreateUserOutput, error) {
	if err := shared.RequireAdmin(in.Actor); err != nil {
		return nil, err
	}
	user, err := newUser(in.Actor.TenantID, in.Email, in.DisplayName, in.Role)
	if err != nil {
		return nil, err
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	uc.logger.Info("", "user", fmt.Sprintf("added %s %s to tenant %s", user.Role, user.Email, user.TenantID))
	return &CreateUserOutput{User: user}, nil
}

func newUser(tenant domain.TenantID, email, name string, role domain.Role) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrEmptyEmail
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}
	return &domain.User{
		ID:          shared.NewID(),
		TenantID:    tenant,
		Email:       email,
		DisplayName: strings.TrimSpace(name),
		Role:        role,
	}, nil
}
