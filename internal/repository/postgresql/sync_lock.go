package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/ledger"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/database"
)

type syncLockRepository struct {
	db *database.DB
}

func NewSyncLockRepository(db *database.DB) ledger.SyncLockRepository {
	return &syncLockRepository{db: db}
}

// Acquire implements ledger.SyncLockRepository. Taking a free lock and
// reclaiming a stale one happen in one statement, so two contenders can
// never both win.
func (r *syncLockRepository) Acquire(ctx context.Context, name, owner string, now, staleBefore time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO sync_locks (name, owner, acquired_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET owner = EXCLUDED.owner, acquired_at = EXCLUDED.acquired_at
		WHERE sync_locks.acquired_at < $4
		RETURNING owner
	`

	var got string
	err := q.QueryRow(ctx, query, name, owner, now, staleBefore).Scan(&got)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ledger.ErrLockContention
		}
		return fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	return nil
}

// Release implements ledger.SyncLockRepository.
func (r *syncLockRepository) Release(ctx context.Context, name, owner string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM sync_locks WHERE name = $1 AND owner = $2`, name, owner)
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrLockNotHeld
	}
	return nil
}
