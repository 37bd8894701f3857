package testimonial

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, t *Testimonial) error
	GetByID(ctx context.Context, id string) (*Testimonial, error)
	List(ctx context.Context, filter Filter) ([]*Testimonial, int, error)
	// UpdateStatus stores the new status together with the timestamps the
	// transition stamped on t.
	UpdateStatus(ctx context.Context, t *Testimonial) error
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var selectColumns = []string{
	"id", "name", "email", "description", "rating", "status",
	"created_at", "published_at", "archived_at",
}

func scanTestimonial(row pgx.Row, extra ...any) (*Testimonial, error) {
	var (
		t      Testimonial
		status string
	)
	dest := []any{
		&t.ID, &t.Name, &t.Email, &t.Description, &t.Rating, &status,
		&t.CreatedAt, &t.PublishedAt, &t.ArchivedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	t.Status = Status(status)
	return &t, nil
}

func (r *pgxRepository) Create(ctx context.Context, t *Testimonial) error {
	columns := []string{"name", "email", "description", "rating", "status", "published_at", "archived_at"}
	values := []any{t.Name, t.Email, t.Description, t.Rating, string(t.Status), t.PublishedAt, t.ArchivedAt}
	if !t.CreatedAt.IsZero() {
		columns = append(columns, "created_at")
		values = append(values, t.CreatedAt)
	}

	query, args, err := psql.Insert("public.testimonials").
		Columns(columns...).
		Values(values...).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create testimonial query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&t.ID, &t.CreatedAt); err != nil {
		return fmt.Errorf("create testimonial failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Testimonial, error) {
	query, args, err := psql.Select(selectColumns...).
		From("public.testimonials").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get testimonial query failed: %w", err)
	}

	t, err := scanTestimonial(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get testimonial failed: %w", err)
	}
	return t, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Testimonial, int, error) {
	listColumns := append(append([]string{}, selectColumns...), "count(*) OVER() AS total_count")
	q := psql.Select(listColumns...).From("public.testimonials")

	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(filter.Status)})
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
		return nil, 0, fmt.Errorf("build list testimonials query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list testimonials failed: %w", err)
	}
	defer rows.Close()

	var (
		items []*Testimonial
		total int
	)
	for rows.Next() {
		t, err := scanTestimonial(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan testimonial failed: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate testimonials failed: %w", err)
	}
	return items, total, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, t *Testimonial) error {
	query, args, err := psql.Update("public.testimonials").
		Set("status", string(t.Status)).
		Set("published_at", t.PublishedAt).
		Set("archived_at", t.ArchivedAt).
		Where(squirrel.Eq{"id": t.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update testimonial status query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update testimonial status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.testimonials").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete testimonial query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete testimonial failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
