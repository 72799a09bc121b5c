package reviews

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, rev Review) (int64, error) {
	const q = `
		INSERT INTO reviews (subject_id, week_start, wins, blockers, mood)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, q, rev.SubjectID, rev.WeekStart, rev.Wins, rev.Blockers, rev.Mood).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repo) ListByWeek(ctx context.Context, weekStart string) ([]Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, subject_id, week_start, wins, blockers, mood, created_at
		FROM reviews
		WHERE week_start = $1
		ORDER BY subject_id
	`, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

func (r *Repo) ListBySubject(ctx context.Context, subjectID int64, limit int) ([]Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, subject_id, week_start, wins, blockers, mood, created_at
		FROM reviews
		WHERE subject_id = $1
		ORDER BY week_start DESC
		LIMIT $2
	`, subjectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

func scanReviews(rows pgx.Rows) ([]Review, error) {
	var out []Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.SubjectID, &rev.WeekStart, &rev.Wins, &rev.Blockers, &rev.Mood, &rev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}
