// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/taibuivan/vidora/internal/platform/apperr"
	"github.com/taibuivan/vidora/internal/platform/media"
	"github.com/taibuivan/vidora/internal/platform/validate"
	"github.com/taibuivan/vidora/internal/users/auth"
)

// # Service Implementation

// Service implements the profile, history, and account media operations.
type Service struct {
	repository Repository
	cache      Cache
	uploader   media.Uploader
	logger     *slog.Logger
}

// NewService wires the profile service with its collaborators.
func NewService(repository Repository, cache Cache, uploader media.Uploader, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		cache:      cache,
		uploader:   uploader,
		logger:     logger,
	}
}

/*
ChannelProfile assembles the channel page for a username as seen by viewerID.

Description:

	The viewer-independent aggregate (identity fields plus subscriber
	counts) is served through the Redis read cache. The isSubscribed flag
	is resolved fresh on every call; an anonymous viewer always sees false.

Returns:
  - *ChannelProfile: the channel page aggregate
  - error: apperr.NotFound when no account has the username
*/
func (service *Service) ChannelProfile(context context.Context, username, viewerID string) (*ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, validate.RequiredError(auth.FieldUsername, "Username is required")
	}

	channel, hit := service.cache.GetChannel(context, username)
	if !hit {
		loaded, err := service.repository.ChannelByUsername(context, username)
		if err != nil {
			return nil, err
		}
		service.cache.SetChannel(context, username, loaded)
		channel = loaded
	}

	if viewerID != "" && viewerID != channel.ID {
		subscribed, err := service.repository.IsSubscribed(context, viewerID, channel.ID)
		if err != nil {
			return nil, err
		}
		channel.IsSubscribed = subscribed
	}

	return channel, nil
}

// WatchHistory lists the caller's watch events in insertion order. A user
// who has watched nothing gets an empty slice.
func (service *Service) WatchHistory(context context.Context, userID string) ([]WatchedVideo, error) {
	return service.repository.WatchHistory(context, userID)
}

// RecordWatch appends a watch event. Re-watching appends again; history is
// an event log, not a set.
func (service *Service) RecordWatch(context context.Context, userID, videoID string) error {
	validator := validate.New().
		Required("videoId", videoID).
		UUID("videoId", videoID)
	if err := validator.Err(); err != nil {
		return err
	}
	return service.repository.RecordWatch(context, userID, videoID)
}

/*
UpdateAccount changes the caller's full name and email.

Description:

	Both fields are required, matching the original platform behavior. The
	channel cache entry is invalidated so the next profile read sees the
	new values.

Returns:
  - *auth.User: the updated account
  - error: apperr.ValidationError or apperr.Conflict on a taken email
*/
func (service *Service) UpdateAccount(context context.Context, userID, fullName, email string) (*auth.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))

	validator := validate.New().
		Required(auth.FieldFullName, fullName).
		Required(auth.FieldEmail, email).
		Email(auth.FieldEmail, email)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	user, err := service.repository.UpdateAccount(context, userID, fullName, email)
	if err != nil {
		return nil, err
	}

	service.cache.InvalidateChannel(context, user.Username)
	service.logger.Info("account updated", "user_id", userID)
	return user, nil
}

/*
UpdateAvatar replaces the caller's avatar with a newly uploaded image.

Description:

	Uploads the new image first, swaps the stored reference, then deletes
	the previous media object. A failed delete is logged as a warning and
	does not fail the request; the new avatar is already live.
*/
func (service *Service) UpdateAvatar(context context.Context, userID, localPath string) (*auth.User, error) {
	return service.replaceMedia(context, userID, localPath, auth.FieldAvatar, service.repository.ReplaceAvatar)
}

// UpdateCoverImage replaces the caller's cover image. Same contract as
// UpdateAvatar.
func (service *Service) UpdateCoverImage(context context.Context, userID, localPath string) (*auth.User, error) {
	return service.replaceMedia(context, userID, localPath, auth.FieldCoverImage, service.repository.ReplaceCoverImage)
}

// # Helpers

type replaceFunc func(ctx context.Context, userID, url, key string) (string, *auth.User, error)

func (service *Service) replaceMedia(context context.Context, userID, localPath, field string, replace replaceFunc) (*auth.User, error) {
	defer service.removeTempFile(localPath)

	if localPath == "" {
		return nil, validate.RequiredError(field, "An image file is required")
	}

	uploaded, err := service.uploader.UploadImage(context, localPath)
	if err != nil {
		return nil, apperr.UploadFailed("Failed to upload image", err)
	}

	previousKey, user, err := replace(context, userID, uploaded.URL, uploaded.Key)
	if err != nil {
		// The row was not updated; remove the orphaned upload.
		if deleteErr := service.uploader.Delete(context, uploaded.Key); deleteErr != nil {
			service.logger.Warn("failed to delete orphaned upload", "key", uploaded.Key, "error", deleteErr)
		}
		return nil, err
	}

	if previousKey != "" {
		if err := service.uploader.Delete(context, previousKey); err != nil {
			service.logger.Warn("failed to delete replaced media object",
				"user_id", userID, "key", previousKey, "error", err)
		}
	}

	service.cache.InvalidateChannel(context, user.Username)
	service.logger.Info("profile media replaced", "user_id", userID, "field", field)
	return user, nil
}

func (service *Service) removeTempFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		service.logger.Warn("failed to remove temp upload", "path", path, "error", err)
	}
}
