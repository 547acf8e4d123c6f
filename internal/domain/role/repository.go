package role

import "context"

// Repository is the read-only role policy store.
type Repository interface {
	GetRoleConfig(ctx context.Context, roleID string) (RoleConfig, error)
}
