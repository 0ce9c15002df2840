package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm/internal/domain"
)

// EventRepository handles persistence for events.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	List(ctx context.Context, filter EventFilter) ([]domain.Event, error)
}

// EventFilter narrows event listings.
type EventFilter struct {
	ContractID       *int64
	SupportContactID *int64
	Limit            int
	Offset           int
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository instantiates the repository.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

const eventColumns = `
        SELECT id, contract_id, client_name, client_contact, start_date, end_date,
               support_contact_id, location, attendees, notes
        FROM events`

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	const query = `
        INSERT INTO events (contract_id, client_name, client_contact, start_date, end_date,
                            support_contact_id, location, attendees, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		event.ContractID,
		event.ClientName,
		event.ClientContact,
		event.StartDate,
		event.EndDate,
		event.SupportContactID,
		event.Location,
		event.Attendees,
		event.Notes,
	).Scan(&event.ID)
	return mapError(err)
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	const query = `
        UPDATE events
        SET contract_id=$1, client_name=$2, client_contact=$3, start_date=$4, end_date=$5,
            support_contact_id=$6, location=$7, attendees=$8, notes=$9
        WHERE id=$10`

	return expectAffected(r.pool.Exec(ctx, query,
		event.ContractID,
		event.ClientName,
		event.ClientContact,
		event.StartDate,
		event.EndDate,
		event.SupportContactID,
		event.Location,
		event.Attendees,
		event.Notes,
		event.ID,
	))
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	return expectAffected(r.pool.Exec(ctx, `DELETE FROM events WHERE id=$1`, id))
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, eventColumns+` WHERE id=$1`, id))
}

func (r *eventRepository) List(ctx context.Context, filter EventFilter) ([]domain.Event, error) {
	b := newSelect(eventColumns)
	if filter.ContractID != nil {
		b.where("contract_id", *filter.ContractID)
	}
	if filter.SupportContactID != nil {
		b.where("support_contact_id", *filter.SupportContactID)
	}
	query, args := b.build("start_date", filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var event domain.Event
	if err := row.Scan(
		&event.ID,
		&event.ContractID,
		&event.ClientName,
		&event.ClientContact,
		&event.StartDate,
		&event.EndDate,
		&event.SupportContactID,
		&event.Location,
		&event.Attendees,
		&event.Notes,
	); err != nil {
		return nil, mapError(err)
	}
	return &event, nil
}
