package payroll

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

const payslipColumns = `id, employee_id, period, gross_cents, net_cents, currency, issued_by, issued_at`

func scanPayslip(row pgx.Row) (Payslip, error) {
	var (
		p          Payslip
		employeeID int64
		issuedBy   int64
	)
	if err := row.Scan(&p.ID, &employeeID, &p.Period, &p.GrossCents, &p.NetCents, &p.Currency, &issuedBy, &p.IssuedAt); err != nil {
		return Payslip{}, err
	}
	p.EmployeeID = rbac.UserID(employeeID)
	p.IssuedBy = rbac.UserID(issuedBy)
	return p, nil
}

// GetPayslip loads a payslip by ID.
func (r *Repository) GetPayslip(ctx context.Context, id uuid.UUID) (Payslip, error) {
	p, err := scanPayslip(r.pool.QueryRow(ctx, `SELECT `+payslipColumns+` FROM payslips WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payslip{}, ErrNotFound
		}
		return Payslip{}, err
	}
	return p, nil
}

// ListPayslips returns payslips matching the filters and the total count.
func (r *Repository) ListPayslips(ctx context.Context, filters ListFilters) ([]Payslip, int, error) {
	const where = ` WHERE ($1 = '' OR period = $1) AND ($2 = 0 OR employee_id = $2)`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payslips`+where, filters.Period, int64(filters.EmployeeID)).Scan(&total); err != nil {
		return nil, 0, err
	}
	offset := (filters.Page - 1) * filters.Limit
	rows, err := r.pool.Query(ctx, `SELECT `+payslipColumns+` FROM payslips`+where+` ORDER BY period DESC, employee_id LIMIT $3 OFFSET $4`,
		filters.Period, int64(filters.EmployeeID), filters.Limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
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

// CreatePayslip inserts a payslip.
func (r *Repository) CreatePayslip(ctx context.Context, p Payslip) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO payslips (`+payslipColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, int64(p.EmployeeID), p.Period, p.GrossCents, p.NetCents, p.Currency, int64(p.IssuedBy), p.IssuedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
