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

const blogTableName = "redaid.blogs"

var blogColumns = utils.Columns(types.Blog{})

type BlogRepository struct {
	pool *pgxpool.Pool
}

func NewBlogRepository(pool *pgxpool.Pool) *BlogRepository {
	return &BlogRepository{pool: pool}
}

func (r *BlogRepository) Blog(ctx context.Context, id string) (*types.Blog, error) {
	query, args, err := psql().
		Select(blogColumns...).
		From(blogTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate blog query: %w", err)
	}

	var blog = new(types.Blog)
	err = pgxscan.Get(ctx, r.pool, blog, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrBlogNotFound
		}
		return nil, fmt.Errorf("failed to fetch blog: %w", err)
	}

	return blog, nil
}

func (r *BlogRepository) Blogs(ctx context.Context, filter *types.BlogFilter) ([]*types.Blog, error) {
	limit, offset := paginate(filter.Page, filter.Limit)

	builder := psql().
		Select(blogColumns...).
		From(blogTableName).
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset)

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate blogs query: %w", err)
	}

	var blogs = make([]*types.Blog, 0)
	err = pgxscan.Select(ctx, r.pool, &blogs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blogs: %w", err)
	}

	return blogs, nil
}

func (r *BlogRepository) CreateBlog(ctx context.Context, blog *types.Blog) error {
	now := time.Now()
	blog.ID = utils.NanoID()
	blog.CreatedAt = now
	blog.UpdatedAt = now

	query, args, err := psql().Insert(blogTableName).SetMap(utils.ColumnValues(blog)).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert blog query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.WrapErr(err, "failed to create blog")
}

func (r *BlogRepository) UpdateBlog(ctx context.Context, blog *types.Blog) error {
	blog.UpdatedAt = time.Now()

	query, args, err := psql().
		Update(blogTableName).
		SetMap(map[string]any{
			"title":         blog.Title,
			"content":       blog.Content,
			"category":      blog.Category,
			"thumbnail_url": blog.ThumbnailURL,
			"updated_at":    blog.UpdatedAt,
		}).
		Where(sq.Eq{"id": blog.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update blog query for %s: %w", blog.ID, err)
	}

	return r.execOne(ctx, query, args, "failed to update blog")
}

func (r *BlogRepository) UpdateBlogStatus(ctx context.Context, id string, status types.BlogStatus) error {
	query, args, err := psql().
		Update(blogTableName).
		Set("status", status).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update blog status query for %s: %w", id, err)
	}

	return r.execOne(ctx, query, args, "failed to update blog status")
}

func (r *BlogRepository) DeleteBlog(ctx context.Context, id string) error {
	query, args, err := psql().Delete(blogTableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete blog query for %s: %w", id, err)
	}

	return r.execOne(ctx, query, args, "failed to delete blog")
}

func (r *BlogRepository) execOne(ctx context.Context, query string, args []any, msg string) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrBlogNotFound
	}
	return nil
}
