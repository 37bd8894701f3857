package image

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, img *Image) error
	GetByID(ctx context.Context, id string) (*Image, error)
	List(ctx context.Context, filter Filter) ([]*Image, int, error)
	// MarkDeletion stamps deletion_requested_at unless already set and
	// returns the stored timestamp.
	MarkDeletion(ctx context.Context, id string, at time.Time) (time.Time, error)
	CountPendingDeletion(ctx context.Context) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var selectColumns = []string{
	"id", "url", "public_id", "alt_text", "content_type", "size", "storage_path",
	"thumbnail_path", "uploaded_by", "deletion_requested_at", "created_at",
}

func scanImage(row pgx.Row, extra ...any) (*Image, error) {
	img := &Image{}
	dest := []any{
		&img.ID, &img.URL, &img.PublicID, &img.AltText, &img.ContentType, &img.Size, &img.StoragePath,
		&img.ThumbnailPath, &img.UploadedBy, &img.DeletionRequestedAt, &img.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return img, nil
}

func (r *repository) Create(ctx context.Context, img *Image) error {
	query, args, err := psql.Insert("public.images").
		Columns("id", "url", "public_id", "alt_text", "content_type", "size",
			"storage_path", "thumbnail_path", "uploaded_by").
		Values(img.ID, img.URL, img.PublicID, img.AltText, img.ContentType, img.Size,
			img.StoragePath, img.ThumbnailPath, img.UploadedBy).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&img.CreatedAt); err != nil {
		return fmt.Errorf("failed to create image record: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Image, error) {
	query, args, err := psql.Select(selectColumns...).
		From("public.images").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	img, err := scanImage(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]*Image, int, error) {
	listColumns := append(append([]string{}, selectColumns...), "count(*) OVER() AS total_count")
	q := psql.Select(listColumns...).From("public.images")

	if filter.PendingDeletion {
		q = q.Where(squirrel.NotEq{"deletion_requested_at": nil})
	}

	order := "DESC"
	if filter.SortOrder == "ASC" {
		order = "ASC"
	}
	q = q.OrderBy("created_at " + order)

	if filter.PageSize > 0 {
		page := max(filter.Page, 1)
		q = q.Limit(uint64(filter.PageSize)).Offset(uint64((page - 1) * filter.PageSize))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var (
		items []*Image
		total int
	)
	for rows.Next() {
		img, err := scanImage(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan image: %w", err)
		}
		items = append(items, img)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate images: %w", err)
	}
	return items, total, nil
}

func (r *repository) MarkDeletion(ctx context.Context, id string, at time.Time) (time.Time, error) {
	query, args, err := psql.Update("public.images").
		Set("deletion_requested_at", squirrel.Expr("COALESCE(deletion_requested_at, ?)", at)).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING deletion_requested_at").
		ToSql()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to build query: %w", err)
	}

	var marked time.Time
	if err := r.db.QueryRow(ctx, query, args...).Scan(&marked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("failed to mark image for deletion: %w", err)
	}
	return marked, nil
}

func (r *repository) CountPendingDeletion(ctx context.Context) (int, error) {
	query, args, err := psql.Select("count(*)").
		From("public.images").
		Where(squirrel.NotEq{"deletion_requested_at": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count images pending deletion: %w", err)
	}
	return n, nil
}
