package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fieldlab/fieldops/internal/domain"
)

// InitStoreInput contains the input parameters for InitStore.
type InitStoreInput struct {
	DataDir    string          // Data directory to create (empty = store manages its own location)
	TenantID   domain.TenantID // Tenant of the first admin (empty = legacy tenant)
	AdminEmail string          // First admin email (required)
	AdminName  string          // First admin display name
}

// InitStoreOutput contains the output from InitStore.
type InitStoreOutput struct {
	Admin              *domain.User // The bootstrapped admin (existing admin if already initialized)
	AlreadyInitialized bool         // True if the tenant already had an admin
}

// InitStore prepares the store schema and bootstraps the first admin of a tenant.
type InitStore struct {
	storeInit domain.StoreInitializer
	users     domain.UserRepository
	logger    domain.Logger
}

// NewInitStore creates a new InitStore use case.
func NewInitStore(storeInit domain.StoreInitializer, users domain.UserRepository, logger domain.Logger) *InitStore {
	return &InitStore{
		storeInit: storeInit,
		users:     users,
		logger:    loggerOrNop(logger),
	}
}

// Execute creates the data directory and schema, then the tenant's first admin.
// Running it again is safe: the schema is repaired and the existing admin is returned.
func (uc *InitStore) Execute(ctx context.Context, in InitStoreInput) (*InitStoreOutput, error) {
	if in.DataDir != "" {
		if err := os.MkdirAll(filepath.Join(in.DataDir, domain.LogsDirName), 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	if err := uc.storeInit.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	admins, err := uc.users.ListByRole(ctx, in.TenantID, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	if len(admins) > 0 {
		return &InitStoreOutput{Admin: admins[0], AlreadyInitialized: true}, nil
	}

	admin, err := newUser(in.TenantID, in.AdminEmail, in.AdminName, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := uc.users.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	uc.logger.Info("", "init", fmt.Sprintf("initialized tenant %s with admin %s", in.TenantID, admin.Email))
	return &InitStoreOutput{Admin: admin}, nil
}
