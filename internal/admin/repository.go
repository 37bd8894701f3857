package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores admins added at runtime.
type Repository interface {
	Exists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]*Admin, error)
	Add(ctx context.Context, a *Admin) error
	Remove(ctx context.Context, email string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxRepository) Exists(ctx context.Context, email string) (bool, error) {
	query, args, err := psql.Select("1").
		From("public.additional_admins").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query failed: %w", err)
	}

	var one int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("admin exists query failed: %w", err)
	}
	return true, nil
}

func (r *pgxRepository) List(ctx context.Context) ([]*Admin, error) {
	query, args, err := psql.Select("email", "added_by", "created_at").
		From("public.additional_admins").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list admins query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list admins failed: %w", err)
	}
	defer rows.Close()

	var out []*Admin
	for rows.Next() {
		var a Admin
		if err := rows.Scan(&a.Email, &a.AddedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin failed: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins failed: %w", err)
	}
	return out, nil
}

func (r *pgxRepository) Add(ctx context.Context, a *Admin) error {
	query, args, err := psql.Insert("public.additional_admins").
		Columns("email", "added_by").
		Values(a.Email, a.AddedBy).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build add admin query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&a.CreatedAt); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrAlreadyAdmin
		}
		return fmt.Errorf("add admin failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Remove(ctx context.Context, email string) error {
	query, args, err := psql.Delete("public.additional_admins").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build remove admin query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("remove admin failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
