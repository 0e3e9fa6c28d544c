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

const donationRequestTableName = "redaid.donation_requests"

var donationRequestColumns = utils.Columns(types.DonationRequest{})

type DonationRequestRepository struct {
	pool *pgxpool.Pool
}

func NewDonationRequestRepository(pool *pgxpool.Pool) *DonationRequestRepository {
	return &DonationRequestRepository{pool: pool}
}

func (r *DonationRequestRepository) DonationRequest(ctx context.Context, id string) (*types.DonationRequest, error) {
	query, args, err := psql().
		Select(donationRequestColumns...).
		From(donationRequestTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donation request query: %w", err)
	}

	var req = new(types.DonationRequest)
	err = pgxscan.Get(ctx, r.pool, req, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDonationRequestNotFound
		}
		return nil, fmt.Errorf("failed to fetch donation request: %w", err)
	}

	return req, nil
}

func (r *DonationRequestRepository) DonationRequests(ctx context.Context, filter *types.DonationRequestFilter) ([]*types.DonationRequest, error) {
	limit, offset := paginate(filter.Page, filter.Limit)

	builder := psql().
		Select(donationRequestColumns...).
		From(donationRequestTableName).
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset)

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.RequesterEmail != "" {
		builder = builder.Where(sq.Eq{"requester_email": filter.RequesterEmail})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donation requests query: %w", err)
	}

	var requests = make([]*types.DonationRequest, 0)
	err = pgxscan.Select(ctx, r.pool, &requests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donation requests: %w", err)
	}

	return requests, nil
}

func (r *DonationRequestRepository) CountDonationRequests(ctx context.Context) (int64, error) {
	query, args, err := psql().Select("count(*)").From(donationRequestTableName).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate count donation requests query: %w", err)
	}

	var count int64
	err = r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, utils.WrapErr(err, "failed to count donation requests")
}

func (r *DonationRequestRepository) CreateDonationRequest(ctx context.Context, req *types.DonationRequest) error {
	now := time.Now()
	req.ID = utils.NanoID()
	req.CreatedAt = now
	req.UpdatedAt = now

	query, args, err := psql().Insert(donationRequestTableName).SetMap(utils.ColumnValues(req)).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert donation request query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.WrapErr(err, "failed to create donation request")
}

func (r *DonationRequestRepository) UpdateDonationRequestStatus(ctx context.Context, id string, from, to types.RequestStatus, donor *types.Actor) (bool, error) {
	builder := psql().
		Update(donationRequestTableName).
		Set("status", to).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id, "status": from})

	if donor != nil {
		builder = builder.Set("donor_name", donor.Name).Set("donor_email", donor.Email)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate update status query for donation request %s: %w", id, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update donation request status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *DonationRequestRepository) UpdateDonationRequestFields(ctx context.Context, req *types.DonationRequest) (bool, error) {
	req.UpdatedAt = time.Now()

	query, args, err := psql().
		Update(donationRequestTableName).
		SetMap(map[string]any{
			"recipient_name": req.RecipientName,
			"district_id":    req.DistrictID,
			"upazila":        req.Upazila,
			"hospital_name":  req.HospitalName,
			"full_address":   req.FullAddress,
			"blood_group":    req.BloodGroup,
			"donation_date":  req.DonationDate,
			"donation_time":  req.DonationTime,
			"message":        req.Message,
			"updated_at":     req.UpdatedAt,
		}).
		Where(sq.Eq{"id": req.ID, "status": types.RequestStatusPending}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate update donation request query for %s: %w", req.ID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update donation request: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *DonationRequestRepository) DeleteDonationRequest(ctx context.Context, id string) error {
	query, args, err := psql().Delete(donationRequestTableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete donation request query for %s: %w", id, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete donation request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrDonationRequestNotFound
	}

	return nil
}
