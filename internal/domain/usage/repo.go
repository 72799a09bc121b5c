package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Record(ctx context.Context, subjectID int64, operation string, units float64) error {
	if units < 0 {
		return fmt.Errorf("usage: negative units %v", units)
	}
	const q = `
		INSERT INTO usage_log (subject_id, operation, units, occurred_at)
		VALUES ($1, $2, $3, NOW())
	`
	if _, err := r.pool.Exec(ctx, q, subjectID, operation, units); err != nil {
		return fmt.Errorf("usage: record: %w", err)
	}
	return nil
}

func (r *Repo) ConsumedInWindow(ctx context.Context, subjectID int64, operation string, window time.Duration) (float64, error) {
	const q = `
		SELECT COALESCE(SUM(units), 0)
		FROM usage_log
		WHERE subject_id = $1 AND operation = $2
		  AND occurred_at >= NOW() - make_interval(secs => $3)
	`
	var total float64
	err := r.pool.QueryRow(ctx, q, subjectID, operation, window.Seconds()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("usage: sum window: %w", err)
	}
	return total, nil
}
