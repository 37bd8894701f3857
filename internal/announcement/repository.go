package announcement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/visa-cms-backend/internal/db"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/content"
)

type Repository interface {
	Create(ctx context.Context, a *Announcement) error
	GetByID(ctx context.Context, id string) (*Announcement, error)
	GetBySlug(ctx context.Context, slug string) (*Announcement, error)
	List(ctx context.Context, filter Filter) ([]*Announcement, int, error)
	// ListMainCandidates returns active records flagged for the main page,
	// newest first, without applying the schedule.
	ListMainCandidates(ctx context.Context) ([]*Announcement, error)
	// ListDueScheduled returns active records whose schedule falls in (from, to].
	ListDueScheduled(ctx context.Context, from, to time.Time) ([]*Announcement, error)
	// ListSlugsWithPrefix returns the slugs equal to base or starting with
	// "base-", ignoring the record excludeID.
	ListSlugsWithPrefix(ctx context.Context, base, excludeID string) ([]string, error)
	Update(ctx context.Context, a *Announcement) error
	SetStatus(ctx context.Context, id string, status Status) error
	// SetMain clears the main flag on every other record and sets it on id
	// in a single transaction.
	SetMain(ctx context.Context, id string) error
	ClearMain(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

var selectColumns = []string{
	"id", "title", "short_description", "content", "banner_image", "status",
	"show_on_main", "scheduled_date", "slug", "dismissible", "created_at", "updated_at",
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func encodeText(t content.Text) []byte {
	b, err := json.Marshal(t)
	if err != nil {
		return []byte(`""`)
	}
	return b
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnouncement(row rowScanner, extra ...any) (*Announcement, error) {
	var (
		a                      Announcement
		title, shortDesc, body []byte
		status                 string
	)
	dest := []any{
		&a.ID, &title, &shortDesc, &body, &a.BannerImage, &status,
		&a.ShowOnMain, &a.ScheduledDate, &a.Slug, &a.Dismissible, &a.CreatedAt, &a.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	a.Title = content.Decode(title)
	a.ShortDescription = content.Decode(shortDesc)
	a.Content = content.Decode(body)
	a.Status = Status(status)
	return &a, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || strings.Contains(pgErr.ConstraintName, constraint)
}

// demoteOthers clears the main flag on every record except keepID.
func demoteOthers(ctx context.Context, tx pgx.Tx, keepID string) error {
	q := psql.Update("public.announcements").
		Set("show_on_main", false).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"show_on_main": true})
	if keepID != "" {
		q = q.Where(squirrel.NotEq{"id": keepID})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build demote announcements query failed: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("demote announcements failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Create(ctx context.Context, a *Announcement) error {
	columns := []string{"title", "short_description", "content", "banner_image", "status",
		"show_on_main", "scheduled_date", "slug", "dismissible"}
	values := []any{encodeText(a.Title), encodeText(a.ShortDescription), encodeText(a.Content),
		a.BannerImage, string(a.Status), a.ShowOnMain, a.ScheduledDate, a.Slug, a.Dismissible}
	if !a.CreatedAt.IsZero() {
		columns = append(columns, "created_at")
		values = append(values, a.CreatedAt)
	}

	query, args, err := psql.Insert("public.announcements").
		Columns(columns...).
		Values(values...).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create announcement query failed: %w", err)
	}

	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if a.ShowOnMain {
			if err := demoteOthers(ctx, tx, ""); err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	})
	if err != nil {
		if isUniqueViolation(err, "slug") {
			return ErrSlugTaken
		}
		return fmt.Errorf("create announcement failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*Announcement, error) {
	query, args, err := psql.Select(selectColumns...).
		From("public.announcements").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get announcement query failed: %w", err)
	}

	a, err := scanAnnouncement(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get announcement failed: %w", err)
	}
	return a, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Announcement, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *pgxRepository) GetBySlug(ctx context.Context, slug string) (*Announcement, error) {
	return r.getOne(ctx, squirrel.Eq{"slug": slug})
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Announcement, int, error) {
	listColumns := append(append([]string{}, selectColumns...), "count(*) OVER() AS total_count")
	query := psql.Select(listColumns...).
		From("public.announcements")

	if filter.Keyword != "" {
		query = query.Where(keywordFilter(filter.Keyword))
	}

	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": string(filter.Status)})
	}

	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}
	switch filter.Visibility {
	case VisibilityActive:
		query = query.Where(squirrel.Eq{"status": string(StatusActive)}).
			Where(squirrel.Or{
				squirrel.Eq{"scheduled_date": nil},
				squirrel.LtOrEq{"scheduled_date": now},
			})
	case VisibilityScheduled:
		query = query.Where(squirrel.Eq{"status": string(StatusActive)}).
			Where(squirrel.Gt{"scheduled_date": now})
	}

	orderDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "ASC") {
		orderDir = "ASC"
	}
	query = query.OrderBy("created_at " + orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list announcement query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list announcements failed: %w", err)
	}
	defer rows.Close()

	var result []*Announcement
	var total int

	for rows.Next() {
		a, err := scanAnnouncement(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan announcement failed: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list announcements failed: %w", err)
	}

	return result, total, nil
}

func (r *pgxRepository) queryMany(ctx context.Context, q squirrel.SelectBuilder) ([]*Announcement, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build announcement query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query announcements failed: %w", err)
	}
	defer rows.Close()

	var result []*Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan announcement failed: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *pgxRepository) ListMainCandidates(ctx context.Context) ([]*Announcement, error) {
	return r.queryMany(ctx, psql.Select(selectColumns...).
		From("public.announcements").
		Where(squirrel.Eq{"status": string(StatusActive), "show_on_main": true}).
		OrderBy("created_at DESC"))
}

func (r *pgxRepository) ListDueScheduled(ctx context.Context, from, to time.Time) ([]*Announcement, error) {
	return r.queryMany(ctx, psql.Select(selectColumns...).
		From("public.announcements").
		Where(squirrel.Eq{"status": string(StatusActive)}).
		Where(squirrel.Gt{"scheduled_date": from}).
		Where(squirrel.LtOrEq{"scheduled_date": to}).
		OrderBy("scheduled_date ASC"))
}

func (r *pgxRepository) ListSlugsWithPrefix(ctx context.Context, base, excludeID string) ([]string, error) {
	q := psql.Select("slug").
		From("public.announcements").
		Where(squirrel.Or{
			squirrel.Eq{"slug": base},
			squirrel.Like{"slug": escapeLike(base) + "-%"},
		})
	if excludeID != "" {
		q = q.Where(squirrel.NotEq{"id": excludeID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list slugs query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list slugs failed: %w", err)
	}
	defer rows.Close()

	slugs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan slugs failed: %w", err)
	}
	return slugs, nil
}

// textValues lists the searchable strings of a content.Text column: both
// languages of a localized value, or the bare string of a plain one. The JSON
// keys themselves never take part in the match.
func textValues(column string, stripTags bool) []string {
	values := []string{
		column + "->>'English'",
		column + "->>'Indonesia'",
		"CASE WHEN jsonb_typeof(" + column + ") = 'string' THEN " + column + " #>> '{}' END",
	}
	if stripTags {
		for i, v := range values {
			values[i] = "regexp_replace(" + v + ", '<[^>]*>', ' ', 'g')"
		}
	}
	return values
}

// keywordFilter matches the keyword, wildcards escaped, against the text values
// of title, short description and content (markup removed).
func keywordFilter(keyword string) squirrel.Sqlizer {
	kw := "%" + escapeLike(keyword) + "%"
	var or squirrel.Or
	for _, col := range []struct {
		name      string
		stripTags bool
	}{{"title", false}, {"short_description", false}, {"content", true}} {
		for _, v := range textValues(col.name, col.stripTags) {
			or = append(or, squirrel.Expr(v+" ILIKE ?", kw))
		}
	}
	return or
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *pgxRepository) Update(ctx context.Context, a *Announcement) error {
	query, args, err := psql.Update("public.announcements").
		Set("title", encodeText(a.Title)).
		Set("short_description", encodeText(a.ShortDescription)).
		Set("content", encodeText(a.Content)).
		Set("banner_image", a.BannerImage).
		Set("status", string(a.Status)).
		Set("show_on_main", a.ShowOnMain).
		Set("scheduled_date", a.ScheduledDate).
		Set("slug", a.Slug).
		Set("dismissible", a.Dismissible).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": a.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update announcement query failed: %w", err)
	}

	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if a.ShowOnMain {
			if err := demoteOthers(ctx, tx, a.ID); err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, query, args...).Scan(&a.UpdatedAt)
	})
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return ErrNotFound
		case isUniqueViolation(err, "slug"):
			return ErrSlugTaken
		}
		return fmt.Errorf("update announcement failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) exec(ctx context.Context, q squirrel.UpdateBuilder, op string) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s query failed: %w", op, err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) SetStatus(ctx context.Context, id string, status Status) error {
	return r.exec(ctx, psql.Update("public.announcements").
		Set("status", string(status)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}), "set announcement status")
}

func (r *pgxRepository) SetMain(ctx context.Context, id string) error {
	query, args, err := psql.Update("public.announcements").
		Set("show_on_main", true).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set main announcement query failed: %w", err)
	}

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := demoteOthers(ctx, tx, id); err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("set main announcement failed: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *pgxRepository) ClearMain(ctx context.Context, id string) error {
	return r.exec(ctx, psql.Update("public.announcements").
		Set("show_on_main", false).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}), "clear main announcement")
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.announcements").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete announcement query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete announcement failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
