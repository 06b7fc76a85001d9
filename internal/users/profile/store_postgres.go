// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/vidora/internal/platform/apperr"
	"github.com/taibuivan/vidora/internal/users/auth"
)

// # Postgres Implementation

const uniqueViolation = "23505"

type postgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates the Postgres-backed profile store.
func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (repository *postgresRepository) ChannelByUsername(context context.Context, username string) (*ChannelProfile, error) {
	query := `
		SELECT
			a.id, a.username, a.email, a.fullname, a.avatarurl, a.coverimageurl,
			(SELECT COUNT(*) FROM users.subscription s WHERE s.channelid = a.id)    AS subscribers,
			(SELECT COUNT(*) FROM users.subscription s WHERE s.subscriberid = a.id) AS subscribed_to
		FROM users.account a
		WHERE a.username = $1`

	var channel ChannelProfile
	row := repository.db.QueryRow(context, query, username)
	err := row.Scan(
		&channel.ID, &channel.Username, &channel.Email, &channel.FullName,
		&channel.AvatarURL, &channel.CoverImageURL,
		&channel.SubscriberCount, &channel.SubscribedToCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Channel")
	}
	if err != nil {
		return nil, fmt.Errorf("scan channel profile: %w", err)
	}
	return &channel, nil
}

func (repository *postgresRepository) IsSubscribed(context context.Context, viewerID, channelID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users.subscription
			WHERE subscriberid = $1 AND channelid = $2
		)`

	var subscribed bool
	if err := repository.db.QueryRow(context, query, viewerID, channelID).Scan(&subscribed); err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return subscribed, nil
}

func (repository *postgresRepository) WatchHistory(context context.Context, userID string) ([]WatchedVideo, error) {
	// Ordered by the event sequence, not the watch timestamp, so entries
	// recorded in the same instant keep their insertion order.
	query := `
		SELECT
			v.id, v.title, v.description, v.videofileurl, v.thumbnailurl,
			v.durationseconds, v.views, v.createdat,
			o.fullname, o.username, o.avatarurl,
			w.watchedat
		FROM users.watch_event w
		JOIN videos.video v  ON v.id = w.videoid
		JOIN users.account o ON o.id = v.ownerid
		WHERE w.userid = $1
		ORDER BY w.position`

	rows, err := repository.db.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	history := make([]WatchedVideo, 0)
	for rows.Next() {
		var entry WatchedVideo
		err := rows.Scan(
			&entry.ID, &entry.Title, &entry.Description, &entry.VideoFileURL, &entry.ThumbnailURL,
			&entry.Duration, &entry.Views, &entry.CreatedAt,
			&entry.Owner.FullName, &entry.Owner.Username, &entry.Owner.AvatarURL,
			&entry.WatchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan watch history: %w", err)
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}
	return history, nil
}

func (repository *postgresRepository) RecordWatch(context context.Context, userID, videoID string) error {
	query := `INSERT INTO users.watch_event (userid, videoid) VALUES ($1, $2)`

	if _, err := repository.db.Exec(context, query, userID, videoID); err != nil {
		return fmt.Errorf("record watch event: %w", err)
	}
	return nil
}

func (repository *postgresRepository) UpdateAccount(context context.Context, userID, fullName, email string) (*auth.User, error) {
	query := `
		UPDATE users.account
		SET fullname = $2, email = $3, updatedat = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	user, err := repository.scanAccount(repository.db.QueryRow(context, query, userID, fullName, email))
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == uniqueViolation {
			return nil, apperr.Conflict("Email is already in use")
		}
		return nil, err
	}
	return user, nil
}

func (repository *postgresRepository) ReplaceAvatar(context context.Context, userID, url, key string) (string, *auth.User, error) {
	// The CTE reads the pre-update row, so the previous media key comes
	// back in the same round trip as the update.
	query := `
		WITH previous AS (
			SELECT avatarkey FROM users.account WHERE id = $1
		)
		UPDATE users.account a
		SET avatarurl = $2, avatarkey = $3, updatedat = NOW()
		FROM previous
		WHERE a.id = $1
		RETURNING previous.avatarkey, ` + prefixedAccountColumns

	return repository.scanReplacement(repository.db.QueryRow(context, query, userID, url, key))
}

func (repository *postgresRepository) ReplaceCoverImage(context context.Context, userID, url, key string) (string, *auth.User, error) {
	query := `
		WITH previous AS (
			SELECT coverimagekey FROM users.account WHERE id = $1
		)
		UPDATE users.account a
		SET coverimageurl = $2, coverimagekey = $3, updatedat = NOW()
		FROM previous
		WHERE a.id = $1
		RETURNING previous.coverimagekey, ` + prefixedAccountColumns

	return repository.scanReplacement(repository.db.QueryRow(context, query, userID, url, key))
}

// # Helpers

const accountColumns = `
	id, username, email, fullname, passwordhash,
	avatarurl, avatarkey, coverimageurl, coverimagekey,
	COALESCE(refreshtokenhash, ''),
	createdat, updatedat`

const prefixedAccountColumns = `
	a.id, a.username, a.email, a.fullname, a.passwordhash,
	a.avatarurl, a.avatarkey, a.coverimageurl, a.coverimagekey,
	COALESCE(a.refreshtokenhash, ''),
	a.createdat, a.updatedat`

func (repository *postgresRepository) scanAccount(row pgx.Row) (*auth.User, error) {
	var user auth.User
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

func (repository *postgresRepository) scanReplacement(row pgx.Row) (string, *auth.User, error) {
	var (
		previousKey string
		user        auth.User
	)
	err := row.Scan(
		&previousKey,
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash,
		&user.AvatarURL, &user.AvatarKey, &user.CoverImageURL, &user.CoverImageKey,
		&user.RefreshTokenHash,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, apperr.NotFound("User")
	}
	if err != nil {
		return "", nil, fmt.Errorf("scan media replacement: %w", err)
	}
	return previousKey, &user, nil
}
