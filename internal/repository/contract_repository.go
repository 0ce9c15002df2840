package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm/internal/domain"
)

// ContractRepository handles persistence for contracts.
type ContractRepository interface {
	Create(ctx context.Context, contract *domain.Contract) error
	Update(ctx context.Context, contract *domain.Contract) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Contract, error)
	List(ctx context.Context, filter ContractFilter) ([]domain.Contract, error)
}

// ContractFilter narrows contract listings.
type ContractFilter struct {
	ClientID     *int64
	CommercialID *int64
	Signed       *bool
	Limit        int
	Offset       int
}

type contractRepository struct {
	pool *pgxpool.Pool
}

// NewContractRepository instantiates the repository.
func NewContractRepository(pool *pgxpool.Pool) ContractRepository {
	return &contractRepository{pool: pool}
}

const contractColumns = `
        SELECT id, client_id, commercial_id, total_amount, amount_remaining, signed, created_at
        FROM contracts`

func (r *contractRepository) Create(ctx context.Context, contract *domain.Contract) error {
	const query = `
        INSERT INTO contracts (client_id, commercial_id, total_amount, amount_remaining, signed)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		contract.ClientID,
		contract.CommercialID,
		contract.TotalAmount,
		contract.AmountRemaining,
		contract.Signed,
	).Scan(&contract.ID, &contract.CreatedAt)
	return mapError(err)
}

func (r *contractRepository) Update(ctx context.Context, contract *domain.Contract) error {
	const query = `
        UPDATE contracts
        SET client_id=$1, commercial_id=$2, total_amount=$3, amount_remaining=$4, signed=$5
        WHERE id=$6`

	return expectAffected(r.pool.Exec(ctx, query,
		contract.ClientID,
		contract.CommercialID,
		contract.TotalAmount,
		contract.AmountRemaining,
		contract.Signed,
		contract.ID,
	))
}

func (r *contractRepository) Delete(ctx context.Context, id int64) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM contracts WHERE id=$1`, id))
}

func (r *contractRepository) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	return scanContract(r.pool.QueryRow(ctx, contractColumns+` WHERE id=$1`, id))
}

func (r *contractRepository) List(ctx context.Context, filter ContractFilter) ([]domain.Contract, error) {
	b := newSelect(contractColumns)
	if filter.ClientID != nil {
		b.where("client_id", *filter.ClientID)
	}
	if filter.CommercialID != nil {
		b.where("commercial_id", *filter.CommercialID)
	}
	if filter.Signed != nil {
		b.where("signed", *filter.Signed)
	}
	query, args := b.build("id", filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []domain.Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, *contract)
	}
	return contracts, rows.Err()
}

func scanContract(row pgx.Row) (*domain.Contract, error) {
	var contract domain.Contract
	if err := row.Scan(
		&contract.ID,
		&contract.ClientID,
		&contract.CommercialID,
		&contract.TotalAmount,
		&contract.AmountRemaining,
		&contract.Signed,
		&contract.CreatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &contract, nil
}
