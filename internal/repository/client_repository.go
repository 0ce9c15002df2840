package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm/internal/domain"
)

// ClientRepository handles persistence for clients.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]domain.Client, error)
}

// ClientFilter narrows client listings.
type ClientFilter struct {
	CommercialContactID *int64
	Limit               int
	Offset              int
}

type clientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository instantiates the repository.
func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	const query = `
        INSERT INTO clients (full_name, email, phone, company_name, last_contact_at, commercial_contact_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		client.FullName,
		client.Email,
		client.Phone,
		client.CompanyName,
		client.LastContactAt,
		client.CommercialContactID,
	).Scan(&client.ID, &client.CreatedAt)
	return mapError(err)
}

func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	const query = `
        UPDATE clients
        SET full_name=$1, email=$2, phone=$3, company_name=$4, last_contact_at=$5, commercial_contact_id=$6
        WHERE id=$7`

	return expectAffected(r.pool.Exec(ctx, query,
		client.FullName,
		client.Email,
		client.Phone,
		client.CompanyName,
		client.LastContactAt,
		client.CommercialContactID,
		client.ID,
	))
}

func (r *clientRepository) Delete(ctx context.Context, id int64) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM clients WHERE id=$1`, id))
}

func (r *clientRepository) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	const query = `
        SELECT id, full_name, email, phone, company_name, created_at, last_contact_at, commercial_contact_id
        FROM clients WHERE id=$1`
	return scanClient(r.pool.QueryRow(ctx, query, id))
}

func (r *clientRepository) List(ctx context.Context, filter ClientFilter) ([]domain.Client, error) {
	b := newSelect(`
        SELECT id, full_name, email, phone, company_name, created_at, last_contact_at, commercial_contact_id
        FROM clients`)
	if filter.CommercialContactID != nil {
		b.where("commercial_contact_id", *filter.CommercialContactID)
	}
	query, args := b.build("id", filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *client)
	}
	return clients, rows.Err()
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	var client domain.Client
	if err := row.Scan(
		&client.ID,
		&client.FullName,
		&client.Email,
		&client.Phone,
		&client.CompanyName,
		&client.CreatedAt,
		&client.LastContactAt,
		&client.CommercialContactID,
	); err != nil {
		return nil, mapError(err)
	}
	return &client, nil
}
