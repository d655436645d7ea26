package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

// SSHUser is a key allowed into the SSH terminal client. PhoneNumber, when
// set, prefills the price alert form.
type SSHUser struct {
	ID          int64
	Username    string
	PublicKey   string
	Fingerprint string
	PhoneNumber string
	IsActive    bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
}

type SSHUserRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSSHUserRepository(pool PgxPool, tracer trace.Tracer) *SSHUserRepository {
	return &SSHUserRepository{pool: pool, tracer: tracer}
}

func (r *SSHUserRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ssh_users (
			id            BIGSERIAL PRIMARY KEY,
			username      TEXT NOT NULL,
			public_key    TEXT NOT NULL,
			fingerprint   TEXT NOT NULL UNIQUE,
			phone_number  TEXT NOT NULL DEFAULT '',
			is_active     BOOLEAN NOT NULL DEFAULT TRUE,
			last_login_at TIMESTAMPTZ,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

// FindByFingerprint returns nil with no error when no active user has the key.
func (r *SSHUserRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*SSHUser, error) {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.find-by-fingerprint")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT id, username, public_key, fingerprint, phone_number,
		        is_active, last_login_at, created_at
		 FROM ssh_users
		 WHERE fingerprint = $1 AND is_active = TRUE`,
		fingerprint,
	)

	var u SSHUser
	var lastLogin *time.Time
	err := row.Scan(
		&u.ID, &u.Username, &u.PublicKey, &u.Fingerprint, &u.PhoneNumber,
		&u.IsActive, &lastLogin, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.LastLoginAt = lastLogin
	return &u, nil
}

func (r *SSHUserRepository) RecordLogin(ctx context.Context, userID int64) error {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.record-login")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE ssh_users SET last_login_at = NOW() WHERE id = $1`,
		userID,
	)
	return err
}

func (r *SSHUserRepository) CountActive(ctx context.Context) (int, error) {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.count-active")
	defer span.End()

	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ssh_users WHERE is_active = TRUE`).Scan(&n)
	return n, err
}
