// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/vidora/internal/platform/apperr"
	"github.com/taibuivan/vidora/pkg/uuid"
)

// # Postgres Implementation

const userColumns = `
	id, username, email, fullname, passwordhash,
	avatarurl, avatarkey, coverimageurl, coverimagekey,
	COALESCE(refreshtokenhash, ''),
	createdat, updatedat`

type postgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository creates the Postgres-backed identity store.
func NewPostgresUserRepository(db *pgxpool.Pool) UserRepository {
	return &postgresUserRepository{db: db}
}

func (repository *postgresUserRepository) Create(context context.Context, user *User) (*User, error) {
	user.ID = uuid.New()

	query := `
		INSERT INTO users.account (
			id, username, email, fullname, passwordhash,
			avatarurl, avatarkey, coverimageurl, coverimagekey
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING createdat, updatedat`

	row := repository.db.QueryRow(context, query,
		user.ID, user.Username, user.Email, user.FullName, user.PasswordHash,
		user.AvatarURL, user.AvatarKey, user.CoverImageURL, user.CoverImageKey,
	)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return user, nil
}

func (repository *postgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users.account WHERE id = $1`
	return repository.scanOne(context, query, id)
}

func (repository *postgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users.account WHERE username = $1`
	return repository.scanOne(context, query, username)
}

func (repository *postgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users.account WHERE email = $1`
	return repository.scanOne(context, query, email)
}

func (repository *postgresUserRepository) ExistsByUsernameOrEmail(context context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users.account WHERE username = $1 OR email = $2)`

	var exists bool
	if err := repository.db.QueryRow(context, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check account existence: %w", err)
	}
	return exists, nil
}

func (repository *postgresUserRepository) SetRefreshToken(context context.Context, userID, tokenHash string) error {
	query := `UPDATE users.account SET refreshtokenhash = $2, updatedat = NOW() WHERE id = $1`

	tag, err := repository.db.Exec(context, query, userID, tokenHash)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

func (repository *postgresUserRepository) RotateRefreshToken(context context.Context, userID, currentHash, newHash string) error {
	// The WHERE clause carries the compare-and-swap. Under concurrent
	// refresh attempts only one UPDATE matches; every other caller sees
	// zero rows and is rejected.
	query := `
		UPDATE users.account
		SET refreshtokenhash = $3, updatedat = NOW()
		WHERE id = $1 AND refreshtokenhash = $2`

	tag, err := repository.db.Exec(context, query, userID, currentHash, newHash)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Unauthorized("Refresh token is expired or already used")
	}
	return nil
}

func (repository *postgresUserRepository) ClearRefreshToken(context context.Context, userID string) error {
	query := `UPDATE users.account SET refreshtokenhash = NULL, updatedat = NOW() WHERE id = $1`

	if _, err := repository.db.Exec(context, query, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (repository *postgresUserRepository) UpdatePassword(context context.Context, userID, passwordHash string) error {
	query := `UPDATE users.account SET passwordhash = $2, updatedat = NOW() WHERE id = $1`

	tag, err := repository.db.Exec(context, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// # Helpers

func (repository *postgresUserRepository) scanOne(context context.Context, query string, args ...any) (*User, error) {
	var user User

	row := repository.db.QueryRow(context, query, args...)
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash,
		&user.AvatarURL, &user.AvatarKey, &user.CoverImageURL, &user.CoverImageKey,
		&user.RefreshTokenHash,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("User")
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &user, nil
}
