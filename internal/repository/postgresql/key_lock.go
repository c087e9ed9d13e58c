package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// lock_not_available, raised when lock_timeout expires.
const sqlStateLockNotAvailable = "55P03"

type advisoryKeyLocker struct {
	db      *database.DB
	timeout time.Duration
}

// NewKeyLocker serializes work on one (employee, date, schedule) key with a
// transaction-scoped advisory lock. A zero timeout waits indefinitely.
func NewKeyLocker(db *database.DB, timeout time.Duration) attendance.KeyLocker {
	return &advisoryKeyLocker{db: db, timeout: timeout}
}

// WithLock runs fn in a transaction holding the key's advisory lock. The lock
// is released on commit or rollback.
func (l *advisoryKeyLocker) WithLock(ctx context.Context, key attendance.Key, fn func(ctx context.Context) error) error {
	var fnErr error
	err := WithTransaction(ctx, l.db, func(tx pgx.Tx) error {
		if l.timeout > 0 {
			if _, err := tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", fmt.Sprintf("%dms", l.timeout.Milliseconds())); err != nil {
				return fmt.Errorf("set lock timeout: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key.String()); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == sqlStateLockNotAvailable {
				return attendance.ErrLockTimeout
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: %w", attendance.ErrLockTimeout, err)
			}
			return fmt.Errorf("acquire advisory lock: %w", err)
		}

		fnErr = fn(WithTx(ctx, tx))
		return fnErr
	})
	if err == nil || fnErr != nil || errors.Is(err, attendance.ErrLockTimeout) {
		return err
	}
	return fmt.Errorf("%w: %w", attendance.ErrPersistence, err)
}
