package store

import (
	"context"
	"fmt"
	"time"

	"redaid/internal/utils"
	"redaid/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const requestEventsTableName = "redaid.request_events"

var requestEventColumns = utils.Columns(types.RequestEvent{})

type RequestEventRepository struct {
	pool *pgxpool.Pool
}

func NewRequestEventRepository(pool *pgxpool.Pool) *RequestEventRepository {
	return &RequestEventRepository{pool: pool}
}

// RecordTransition appends a status change to the request's history.
func (r *RequestEventRepository) RecordTransition(ctx context.Context, event *types.RequestEvent) error {
	event.ID = utils.NanoID()
	event.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(requestEventsTableName).
		SetMap(utils.ColumnValues(event)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert request event query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.WrapErr(err, "failed to record request event")
}

// EventsByRequest returns the history of a request, oldest first.
func (r *RequestEventRepository) EventsByRequest(ctx context.Context, requestID string) ([]*types.RequestEvent, error) {
	query, args, err := psql().
		Select(requestEventColumns...).
		From(requestEventsTableName).
		Where(sq.Eq{"request_id": requestID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request events query: %w", err)
	}

	var events = make([]*types.RequestEvent, 0)
	err = pgxscan.Select(ctx, r.pool, &events, query, args...)
	if err != nil {
		return nil, utils.WrapErr(err, "failed to get request events")
	}

	return events, nil
}
