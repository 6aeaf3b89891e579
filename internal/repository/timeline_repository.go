package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-mini/internal/domain"
)

// TimelineRepository stores the append-only audit trail. Entries are never
// mutated or deleted after creation.
type TimelineRepository interface {
	Create(ctx context.Context, entry *domain.TimelineEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TimelineEntry, error)
}

type timelineRepository struct {
	pool *pgxpool.Pool
}

// NewTimelineRepository builds repository.
func NewTimelineRepository(pool *pgxpool.Pool) TimelineRepository {
	return &timelineRepository{pool: pool}
}

func (r *timelineRepository) Create(ctx context.Context, entry *domain.TimelineEntry) error {
	details, err := domain.EncodeTimelineDetails(entry.Details)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO timeline_entries (id, ticket_id, action, actor_id, details)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING ts`
	return r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.TicketID,
		entry.Action,
		entry.ActorID,
		details,
	).Scan(&entry.Timestamp)
}

func (r *timelineRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TimelineEntry, error) {
	const query = `
        SELECT id, ticket_id, action, actor_id, details, ts
        FROM timeline_entries WHERE ticket_id=$1 ORDER BY ts ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TimelineEntry
	for rows.Next() {
		var entry domain.TimelineEntry
		var raw []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Action,
			&entry.ActorID,
			&raw,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		details, err := domain.DecodeTimelineDetails(entry.Action, raw)
		if err != nil {
			return nil, err
		}
		entry.Details = details
		result = append(result, entry)
	}
	return result, rows.Err()
}
