package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const profileColumns = `id, owner_id, full_name, email, department, title, created_at, updated_at`

func scanProfile(row pgx.Row) (Profile, error) {
	var (
		p       Profile
		ownerID *int64
	)
	if err := row.Scan(&p.ID, &ownerID, &p.FullName, &p.Email, &p.Department, &p.Title, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Profile{}, err
	}
	if ownerID != nil {
		p.OwnerID = rbac.UserID(*ownerID)
	}
	return p, nil
}

func nullableOwner(id rbac.UserID) *int64 {
	if id == 0 {
		return nil
	}
	v := int64(id)
	return &v
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

// GetProfile loads a profile by ID.
func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

// ListProfiles returns profiles matching the filters and the total count.
func (r *Repository) ListProfiles(ctx context.Context, filters ListFilters) ([]Profile, int, error) {
	const where = ` WHERE ($1 = '' OR department = $1)`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`+where, filters.Department).Scan(&total); err != nil {
		return nil, 0, err
	}
	offset := (filters.Page - 1) * filters.Limit
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles`+where+` ORDER BY full_name LIMIT $2 OFFSET $3`,
		filters.Department, filters.Limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CreateProfile inserts a profile.
func (r *Repository) CreateProfile(ctx context.Context, p Profile) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO profiles (`+profileColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, nullableOwner(p.OwnerID), p.FullName, p.Email, p.Department, p.Title, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// UpdateProfile overwrites the mutable fields of a profile.
func (r *Repository) UpdateProfile(ctx context.Context, p Profile) error {
	tag, err := r.pool.Exec(ctx, `UPDATE profiles SET full_name = $2, email = $3, department = $4, title = $5, updated_at = $6 WHERE id = $1`,
		p.ID, p.FullName, p.Email, p.Department, p.Title, p.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProfile removes a profile by ID.
func (r *Repository) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
