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

const fundingTableName = "redaid.funding_records"

var fundingColumns = utils.Columns(types.FundingRecord{})

type FundingRepository struct {
	pool *pgxpool.Pool
}

func NewFundingRepository(pool *pgxpool.Pool) *FundingRepository {
	return &FundingRepository{pool: pool}
}

// CreateFundingRecord inserts the record once per transaction id. A repeated
// confirmation of the same transaction returns the stored record unchanged.
func (r *FundingRepository) CreateFundingRecord(ctx context.Context, record *types.FundingRecord) (*types.FundingRecord, error) {
	record.ID = utils.NanoID()
	record.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(fundingTableName).
		SetMap(utils.ColumnValues(record)).
		Suffix("ON CONFLICT (transaction_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate insert funding record query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create funding record: %w", err)
	}

	return r.FundingRecordByTransaction(ctx, record.TransactionID)
}

func (r *FundingRepository) FundingRecordByTransaction(ctx context.Context, transactionID string) (*types.FundingRecord, error) {
	query, args, err := psql().
		Select(fundingColumns...).
		From(fundingTableName).
		Where(sq.Eq{"transaction_id": transactionID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate funding record query: %w", err)
	}

	var record = new(types.FundingRecord)
	err = pgxscan.Get(ctx, r.pool, record, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrFundingRecordNotFound
		}
		return nil, fmt.Errorf("failed to fetch funding record: %w", err)
	}

	return record, nil
}

func (r *FundingRepository) FundingRecords(ctx context.Context, page *types.Page) ([]*types.FundingRecord, error) {
	limit, offset := paginate(page.Page, page.Limit)

	query, args, err := psql().
		Select(fundingColumns...).
		From(fundingTableName).
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate funding records query: %w", err)
	}

	var records = make([]*types.FundingRecord, 0)
	err = pgxscan.Select(ctx, r.pool, &records, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch funding records: %w", err)
	}

	return records, nil
}

func (r *FundingRepository) TotalFundingCents(ctx context.Context) (int64, error) {
	query, args, err := psql().
		Select("coalesce(sum(amount_cents), 0)::bigint").
		From(fundingTableName).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate total funding query: %w", err)
	}

	var total int64
	err = r.pool.QueryRow(ctx, query, args...).Scan(&total)
	return total, utils.WrapErr(err, "failed to sum funding records")
}
