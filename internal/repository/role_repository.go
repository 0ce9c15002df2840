package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm/internal/domain"
)

// RoleRepository persists permission sets (the roles table).
type RoleRepository interface {
	Create(ctx context.Context, role *domain.PermissionSet) error
	Update(ctx context.Context, role *domain.PermissionSet) error
	// Delete detaches collaborators from the role before removing it.
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.PermissionSet, error)
	GetByName(ctx context.Context, name string) (*domain.PermissionSet, error)
	List(ctx context.Context) ([]domain.PermissionSet, error)
}

type roleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository returns a Postgres-backed implementation.
func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{pool: pool}
}

func (r *roleRepository) Create(ctx context.Context, role *domain.PermissionSet) error {
	const query = `INSERT INTO roles (name, permissions) VALUES ($1, $2) RETURNING id`
	return mapError(r.pool.QueryRow(ctx, query, role.Name, role.Permissions).Scan(&role.ID))
}

func (r *roleRepository) Update(ctx context.Context, role *domain.PermissionSet) error {
	const query = `UPDATE roles SET name=$1, permissions=$2 WHERE id=$3`
	return expectAffected(r.pool.Exec(ctx, query, role.Name, role.Permissions, role.ID))
}

func (r *roleRepository) Delete(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE users SET role_id=NULL WHERE role_id=$1`, id); err != nil {
			return err
		}
		return expectAffected(tx.Exec(ctx, `DELETE FROM roles WHERE id=$1`, id))
	})
}

func (r *roleRepository) GetByID(ctx context.Context, id int64) (*domain.PermissionSet, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT id, name, permissions FROM roles WHERE id=$1`, id))
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*domain.PermissionSet, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT id, name, permissions FROM roles WHERE name=$1`, name))
}

func (r *roleRepository) List(ctx context.Context) ([]domain.PermissionSet, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, permissions FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.PermissionSet
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, rows.Err()
}

func scanRole(row pgx.Row) (*domain.PermissionSet, error) {
	var role domain.PermissionSet
	if err := row.Scan(&role.ID, &role.Name, &role.Permissions); err != nil {
		return nil, mapError(err)
	}
	return &role, nil
}
