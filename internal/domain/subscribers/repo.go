package subscribers

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Save upserts by (subject_id, endpoint): re-registration from the same
// browser refreshes the keys instead of duplicating the row.
func (r *Repo) Save(ctx context.Context, s Subscription) (int64, error) {
	const q = `
		INSERT INTO push_subscriptions (subject_id, endpoint, p256dh, auth)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject_id, endpoint)
		DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth
		RETURNING id
	`
	var id int64
	if err := r.pool.QueryRow(ctx, q, s.SubjectID, s.Endpoint, s.P256dh, s.Auth).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repo) ListBySubject(ctx context.Context, subjectID int64) ([]Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, subject_id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions
		WHERE subject_id = $1
		ORDER BY created_at
	`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// ListActive returns every registered subscription; the reminder batch
// fans out over all of them.
func (r *Repo) ListActive(ctx context.Context) ([]Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, subject_id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions
		ORDER BY subject_id, created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// DeleteByEndpoint drops a stale endpoint after the push service rejected it.
func (r *Repo) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint)
	return err
}

func scanSubscriptions(rows pgx.Rows) ([]Subscription, error) {
	var out []Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.ID, &s.SubjectID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
