package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/streamloft/gateway/internal/db"
	"github.com/streamloft/gateway/internal/faults"
	"github.com/streamloft/gateway/internal/models"
)

// ErrConflict indicates a uniqueness violation on create.
var ErrConflict = errors.New("directory: conflicting record exists")

// Postgres provides PostgreSQL-backed account storage.
type Postgres struct {
	pool db.Pool
}

// NewPostgres constructs a directory backed by PostgreSQL.
func NewPostgres(pool db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// ByID fetches a user by primary key.
func (d *Postgres) ByID(ctx context.Context, id string) (models.User, error) {
	const op = "directory.by_id"

	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, username, email, role
        FROM users
        WHERE id = $1
    `, id)

	return scanUser(row, op)
}

// ByEmail fetches a user by email address. A missing row reports NotFound,
// which callers treat as a legitimate empty result.
func (d *Postgres) ByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "directory.by_email"

	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, username, email, role
        FROM users
        WHERE email = $1
    `, email)

	return scanUser(row, op)
}

// ByUsername fetches a user by username, returning the password hash for
// credential checks alongside the public record.
func (d *Postgres) ByUsername(ctx context.Context, username string) (models.User, string, error) {
	const op = "directory.by_username"

	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var (
		user models.User
		hash string
	)
	err = conn.QueryRow(ctx, `
        SELECT id, username, email, role, password_hash
        FROM users
        WHERE username = $1
    `, username).Scan(&user.ID, &user.Username, &user.Email, &user.Role, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, "", faults.New(faults.NotFound, op, err)
		}
		return models.User{}, "", fmt.Errorf("select user by username: %w", err)
	}
	user.Role = models.ParseRole(string(user.Role))
	return user, hash, nil
}

// Create persists a new user record with the supplied password hash.
func (d *Postgres) Create(ctx context.Context, user models.User, passwordHash string) error {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	now := time.Now().UTC()
	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)
    `, user.ID, user.Username, user.Email, passwordHash, user.Role, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindOrProvision reconciles an OAuth profile with the directory. The user
// row is found or created by a single INSERT ... ON CONFLICT statement, and
// the linked provider tokens are upserted in the same transaction, so
// concurrent callbacks for one email cannot race into duplicate accounts.
func (d *Postgres) FindOrProvision(ctx context.Context, p Provision) (models.User, error) {
	const op = "directory.find_or_provision"

	if p.Email == "" || p.Username == "" {
		return models.User{}, faults.New(faults.InvalidRequest, op, errors.New("email and username are required"))
	}

	// Provisioned accounts get an unusable random password; the owner can
	// only sign in through the provider until they set one.
	placeholder, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash placeholder password: %w", err)
	}

	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.User{}, fmt.Errorf("begin provision transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	var user models.User
	err = tx.QueryRow(ctx, `
        INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)
        ON CONFLICT (email) DO UPDATE SET updated_at = EXCLUDED.updated_at
        RETURNING id, username, email, role
    `, uuid.NewString(), p.Username, p.Email, string(placeholder), models.RoleViewer, now).
		Scan(&user.ID, &user.Username, &user.Email, &user.Role)
	if err != nil {
		return models.User{}, fmt.Errorf("upsert user: %w", err)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO provider_accounts (user_id, provider, provider_user_id, access_token, refresh_token, expires_at, updated_at)
        VALUES ($1, 'twitch', $2, $3, $4, $5, $6)
        ON CONFLICT (user_id, provider) DO UPDATE SET
            provider_user_id = EXCLUDED.provider_user_id,
            access_token = EXCLUDED.access_token,
            refresh_token = EXCLUDED.refresh_token,
            expires_at = EXCLUDED.expires_at,
            updated_at = EXCLUDED.updated_at
    `, user.ID, p.ProviderUserID, p.AccessToken, p.RefreshToken, p.ExpiresAt, now)
	if err != nil {
		return models.User{}, fmt.Errorf("upsert provider account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.User{}, fmt.Errorf("commit provision transaction: %w", err)
	}

	user.Role = models.ParseRole(string(user.Role))
	return user, nil
}

func scanUser(row pgx.Row, op string) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, faults.New(faults.NotFound, op, err)
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.Role = models.ParseRole(string(user.Role))
	return user, nil
}
