package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modernblog/bloghub/internal/domain/user"
	"github.com/modernblog/bloghub/internal/observability"
)

const userColumns = `id, name, email, password_hash, role, bio, phone, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom == nil {
		return fn()
	}

	return r.prom.ObserveDB(op, fn)
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Bio,
		&u.Phone,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var out []user.User

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)

			if err != nil {
				return err
			}

			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE lower(email) = $1`,
			strings.ToLower(email)))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

// Create inserts a new user with the default "user" role. Email is stored
// lowercase; the unique index on lower(email) backs the conflict check.
func (r *UsersRepo) Create(ctx context.Context, name, email, passwordHash string) (user.User, error) {
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Role:         "user",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

// buildUserUpdate translates the provided fields into a builder. A role
// change only survives when the target row is already an admin; the
// caller's own role is checked at the handler boundary.
func buildUserUpdate(req user.UpdateRequest, targetRole string) *updateBuilder {
	b := newUpdateBuilder()

	if req.Name != nil {
		b.Set("name", *req.Name)
	}

	if req.Email != nil {
		b.Set("email", strings.ToLower(*req.Email))
	}

	if req.Role != nil && targetRole == "admin" {
		b.Set("role", *req.Role)
	}

	if req.Bio != nil {
		b.Set("bio", *req.Bio)
	}

	if req.Phone != nil {
		b.Set("phone", *req.Phone)
	}

	return b
}

// Update applies a partial update. When the role guard drops the only
// provided field, nothing is left to write and the call reports
// ErrNoUpdates rather than silently succeeding.
func (r *UsersRepo) Update(ctx context.Context, id string, req user.UpdateRequest) (user.User, error) {
	var targetRole string

	if req.Role != nil {
		current, err := r.GetByID(ctx, id)

		if err != nil {
			return user.User{}, err
		}

		targetRole = current.Role
	}

	b := buildUserUpdate(req, targetRole)

	if b.Empty() {
		return user.User{}, ErrNoUpdates
	}

	query, args := b.Build("users", userColumns, id)

	var u user.User

	err := r.observe("users.update", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		if IsUniqueViolation(err) {
			return user.User{}, ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

// Delete checks existence first so a missing row reports not-found rather
// than a silent no-op. Two round-trips, no transaction; the race window is
// accepted for this endpoint.
func (r *UsersRepo) Delete(ctx context.Context, id string) (user.User, error) {
	u, err := r.GetByID(ctx, id)

	if err != nil {
		return user.User{}, err
	}

	err = r.observe("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}

		return nil
	})

	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

// SetResetToken stores the token digest and its expiry together. Both
// columns are always written as a pair.
func (r *UsersRepo) SetResetToken(ctx context.Context, email, tokenHash string, expiry time.Time) error {
	return r.observe("users.set_reset_token", func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE users
			SET reset_token = $1, reset_token_expiry = $2
			WHERE lower(email) = $3`,
			tokenHash, expiry, strings.ToLower(email))
		return err
	})
}

// FindByResetToken matches email + digest + unexpired. Expiry is enforced
// lazily here; nothing sweeps stale tokens in the background.
func (r *UsersRepo) FindByResetToken(ctx context.Context, email, tokenHash string) (user.User, error) {
	var u user.User

	err := r.observe("users.find_by_reset_token", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users
			WHERE lower(email) = $1
			AND reset_token = $2
			AND reset_token_expiry > now()`,
			strings.ToLower(email), tokenHash))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrResetTokenInvalid
		}

		return user.User{}, err
	}

	return u, nil
}

// ResetPassword stores the new hash and clears both reset-token columns in
// a single statement, so a consumed token can never be replayed.
func (r *UsersRepo) ResetPassword(ctx context.Context, email, passwordHash string) error {
	return r.observe("users.reset_password", func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE users
			SET password_hash = $1,
			    reset_token = NULL,
			    reset_token_expiry = NULL,
			    updated_at = now()
			WHERE lower(email) = $2`,
			passwordHash, strings.ToLower(email))
		return err
	})
}
