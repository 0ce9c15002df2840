package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/pkg/password"
)

// UserRepository defines persistence access for collaborators.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Authenticate returns ErrNotFound for an unknown email or a wrong password.
	Authenticate(ctx context.Context, email, plain string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `
        u.id, u.employee_number, u.name, u.email, u.password_hash, u.department, u.role,
        u.role_id, r.name, r.permissions, u.created_at, u.updated_at
        FROM users u LEFT JOIN roles r ON r.id = u.role_id`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (employee_number, name, email, password_hash, department, role, role_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.EmployeeNumber,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Department,
		user.Role,
		user.PermissionSetID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return mapError(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users
        SET employee_number=$1, name=$2, email=$3, password_hash=$4, department=$5, role=$6, role_id=$7, updated_at=NOW()
        WHERE id=$8`

	return expectAffected(r.pool.Exec(ctx, query,
		user.EmployeeNumber,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Department,
		user.Role,
		user.PermissionSetID,
		user.ID,
	))
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id))
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT`+userColumns+` WHERE u.id=$1`, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT`+userColumns+` WHERE lower(u.email)=lower($1)`, email))
}

func (r *userRepository) Authenticate(ctx context.Context, email, plain string) (*domain.User, error) {
	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !password.Verify(user.PasswordHash, plain) {
		return nil, ErrNotFound
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+userColumns+` ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user        domain.User
		role        string
		setName     *string
		permissions *string
	)
	if err := row.Scan(
		&user.ID,
		&user.EmployeeNumber,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Department,
		&role,
		&user.PermissionSetID,
		&setName,
		&permissions,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	user.Role = domain.Role(role)
	if user.PermissionSetID != nil && setName != nil {
		user.PermissionSet = &domain.PermissionSet{ID: *user.PermissionSetID, Name: *setName}
		if permissions != nil {
			user.PermissionSet.Permissions = *permissions
		}
	}
	return &user, nil
}
