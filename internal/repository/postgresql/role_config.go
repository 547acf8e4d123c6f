package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/role"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/database"
)

type roleConfigRepository struct {
	db *database.DB
}

func NewRoleConfigRepository(db *database.DB) role.Repository {
	return &roleConfigRepository{db: db}
}

// GetRoleConfig implements role.Repository.
func (r *roleConfigRepository) GetRoleConfig(ctx context.Context, roleID string) (role.RoleConfig, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, role_type, expected_per_hour::float8, idle_threshold_minutes
		FROM role_configs
		WHERE id = $1
	`

	var cfg role.RoleConfig
	err := q.QueryRow(ctx, query, roleID).Scan(
		&cfg.ID, &cfg.Name, &cfg.Type, &cfg.ExpectedPerHour, &cfg.IdleThresholdMinutes,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return role.RoleConfig{}, fmt.Errorf("role %s: %w", roleID, role.ErrRoleNotFound)
		}
		return role.RoleConfig{}, fmt.Errorf("failed to get role config %s: %w", roleID, err)
	}

	return cfg, nil
}
