package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"redaid/internal/utils"
	"redaid/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userTableName = "redaid.users"

var userColumns = utils.Columns(types.User{})

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) User(ctx context.Context, email string) (*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(sq.Eq{"email": strings.ToLower(email)}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user query: %w", err)
	}

	var user types.User
	err = pgxscan.Get(ctx, r.pool, &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) Users(ctx context.Context, filter *types.UserFilter) ([]*types.User, error) {
	limit, offset := paginate(filter.Page, filter.Limit)

	builder := psql().
		Select(userColumns...).
		From(userTableName).
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset)

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate users query: %w", err)
	}

	var users = make([]*types.User, 0)
	err = pgxscan.Select(ctx, r.pool, &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, nil
}

// SearchDonors finds active donors matching every non-empty criterion.
func (r *UserRepository) SearchDonors(ctx context.Context, search *types.DonorSearch) ([]*types.User, error) {
	builder := psql().
		Select(userColumns...).
		From(userTableName).
		Where(sq.Eq{"role": types.RoleDonor, "status": types.UserStatusActive}).
		OrderBy("name ASC").
		Limit(100)

	if search.BloodGroup != "" {
		builder = builder.Where(sq.Eq{"blood_group": search.BloodGroup})
	}
	if search.DistrictID != "" {
		builder = builder.Where(sq.Eq{"district_id": search.DistrictID})
	}
	if search.Upazila != "" {
		builder = builder.Where(sq.Eq{"upazila": search.Upazila})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donor search query: %w", err)
	}

	var users = make([]*types.User, 0)
	err = pgxscan.Select(ctx, r.pool, &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search donors: %w", err)
	}

	return users, nil
}

func (r *UserRepository) CountDonors(ctx context.Context) (int64, error) {
	query, args, err := psql().
		Select("count(*)").
		From(userTableName).
		Where(sq.Eq{"role": types.RoleDonor}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate count donors query: %w", err)
	}

	var count int64
	err = r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, utils.WrapErr(err, "failed to count donors")
}

// UpsertIdentity creates the user on first authentication as an active donor.
// Existing users keep their role and status.
func (r *UserRepository) UpsertIdentity(ctx context.Context, email, name string) (*types.User, error) {
	now := time.Now()
	email = strings.ToLower(strings.TrimSpace(email))

	name = strings.TrimSpace(name)
	if name == "" {
		name = email
	}

	query, args, err := psql().
		Insert(userTableName).
		Columns("email", "name", "status", "role", "created_at", "updated_at").
		Values(email, name, types.UserStatusActive, types.RoleDonor, now, now).
		Suffix("ON CONFLICT (email) DO UPDATE SET updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate upsert identity user query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user identity: %w", err)
	}

	return r.User(ctx, email)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, email string, form *types.UserProfileForm) error {
	query, args, err := psql().
		Update(userTableName).
		SetMap(map[string]any{
			"name":        strings.TrimSpace(form.Name),
			"avatar_url":  form.AvatarURL,
			"blood_group": form.BloodGroup,
			"district_id": form.DistrictID,
			"upazila":     form.Upazila,
			"updated_at":  time.Now(),
		}).
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update profile query: %w", err)
	}

	return r.execOne(ctx, query, args, "failed to update profile")
}

func (r *UserRepository) UpdateRole(ctx context.Context, email string, role types.Role) error {
	query, args, err := psql().
		Update(userTableName).
		Set("role", role).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update role query: %w", err)
	}

	return r.execOne(ctx, query, args, "failed to update role")
}

func (r *UserRepository) UpdateStatus(ctx context.Context, email string, status types.UserStatus) error {
	query, args, err := psql().
		Update(userTableName).
		Set("status", status).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update status query: %w", err)
	}

	return r.execOne(ctx, query, args, "failed to update status")
}

func (r *UserRepository) execOne(ctx context.Context, query string, args []any, msg string) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}
	return nil
}
