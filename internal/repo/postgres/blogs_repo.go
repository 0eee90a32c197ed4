package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modernblog/bloghub/internal/domain/blog"
	"github.com/modernblog/bloghub/internal/observability"
)

const blogColumns = `id, title, description, tags, author_email, created_at, updated_at`

type BlogsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewBlogsRepo(pool *pgxpool.Pool, prom *observability.Prom) *BlogsRepo {
	return &BlogsRepo{pool: pool, prom: prom}
}

func (r *BlogsRepo) observe(op string, fn func() error) error {
	if r.prom == nil {
		return fn()
	}

	return r.prom.ObserveDB(op, fn)
}

func scanBlog(row pgx.Row) (blog.Blog, error) {
	var b blog.Blog

	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Description,
		&b.Tags,
		&b.AuthorEmail,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	return b, err
}

// List returns all blogs newest-first, optionally filtered by author email.
func (r *BlogsRepo) List(ctx context.Context, authorEmail *string) ([]blog.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs`

	var args []interface{}

	if authorEmail != nil {
		query += ` WHERE author_email = $1`
		args = append(args, strings.ToLower(*authorEmail))
	}

	query += ` ORDER BY created_at DESC`

	var out []blog.Blog

	err := r.observe("blogs.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			b, err := scanBlog(rows)

			if err != nil {
				return err
			}

			out = append(out, b)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *BlogsRepo) GetByID(ctx context.Context, id string) (blog.Blog, error) {
	var b blog.Blog

	err := r.observe("blogs.get_by_id", func() error {
		var err error
		b, err = scanBlog(r.pool.QueryRow(ctx,
			`SELECT `+blogColumns+` FROM blogs WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return blog.Blog{}, blog.ErrNotFound
		}

		return blog.Blog{}, err
	}

	return b, nil
}

func (r *BlogsRepo) Create(ctx context.Context, req blog.CreateRequest, authorEmail string) (blog.Blog, error) {
	now := time.Now().UTC()

	b := blog.Blog{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags.String(),
		AuthorEmail: strings.ToLower(authorEmail),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := r.observe("blogs.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO blogs (id, title, description, tags, author_email, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			b.ID, b.Title, b.Description, b.Tags, b.AuthorEmail, b.CreatedAt, b.UpdatedAt)
		return err
	})

	if err != nil {
		return blog.Blog{}, err
	}

	return b, nil
}

func (r *BlogsRepo) Update(ctx context.Context, id string, req blog.UpdateRequest) (blog.Blog, error) {
	b := newUpdateBuilder()

	if req.Title != "" {
		b.Set("title", req.Title)
	}

	if req.Description != "" {
		b.Set("description", req.Description)
	}

	if req.Tags != nil {
		b.Set("tags", req.Tags.String())
	}

	if b.Empty() {
		return r.GetByID(ctx, id)
	}

	query, args := b.Build("blogs", blogColumns, id)

	var out blog.Blog

	err := r.observe("blogs.update", func() error {
		var err error
		out, err = scanBlog(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return blog.Blog{}, blog.ErrNotFound
		}

		return blog.Blog{}, err
	}

	return out, nil
}

// Delete reports the deleted row. The existence check costs an extra
// round-trip and is kept for idempotent not-found reporting.
func (r *BlogsRepo) Delete(ctx context.Context, id string) (blog.Blog, error) {
	b, err := r.GetByID(ctx, id)

	if err != nil {
		return blog.Blog{}, err
	}

	err = r.observe("blogs.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return blog.ErrNotFound
		}

		return nil
	})

	if err != nil {
		return blog.Blog{}, err
	}

	return b, nil
}
