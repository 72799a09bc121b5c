package reports

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, rep Report) (int64, error) {
	const q = `
		INSERT INTO reports (week_start, summary, model, tokens_used, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, q, rep.WeekStart, rep.Summary, rep.Model, rep.TokensUsed, rep.CreatedBy).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repo) GetByWeek(ctx context.Context, weekStart string) (*Report, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, week_start, summary, model, tokens_used, created_by, created_at
		FROM reports
		WHERE week_start = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, weekStart)

	var rep Report
	if err := row.Scan(&rep.ID, &rep.WeekStart, &rep.Summary, &rep.Model, &rep.TokensUsed, &rep.CreatedBy, &rep.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rep, nil
}
