// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidora/internal/platform/apperr"
	"github.com/taibuivan/vidora/internal/platform/media"
	"github.com/taibuivan/vidora/internal/platform/sec"
	"github.com/taibuivan/vidora/pkg/uuid"
)

// # Test Fakes

type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: map[string]*User{}}
}

func (repository *memoryUserRepository) Create(_ context.Context, user *User) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	repository.users[user.ID] = &clone
	return user, nil
}

func (repository *memoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if user, ok := repository.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("User")
}

func (repository *memoryUserRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, user := range repository.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repository *memoryUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, user := range repository.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repository *memoryUserRepository) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, user := range repository.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (repository *memoryUserRepository) SetRefreshToken(_ context.Context, userID, tokenHash string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.RefreshTokenHash = tokenHash
	return nil
}

func (repository *memoryUserRepository) RotateRefreshToken(_ context.Context, userID, currentHash, newHash string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.users[userID]
	if !ok || user.RefreshTokenHash != currentHash {
		return apperr.Unauthorized("Refresh token is expired or already used")
	}
	user.RefreshTokenHash = newHash
	return nil
}

func (repository *memoryUserRepository) ClearRefreshToken(_ context.Context, userID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if user, ok := repository.users[userID]; ok {
		user.RefreshTokenHash = ""
	}
	return nil
}

func (repository *memoryUserRepository) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = passwordHash
	return nil
}

func (repository *memoryUserRepository) count() int {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return len(repository.users)
}

func (repository *memoryUserRepository) storedHash(userID string) string {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if user, ok := repository.users[userID]; ok {
		return user.RefreshTokenHash
	}
	return ""
}

type fakeUploader struct {
	mu        sync.Mutex
	uploads   []string
	deletes   []string
	failPaths map[string]bool
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{failPaths: map[string]bool{}}
}

func (uploader *fakeUploader) UploadImage(_ context.Context, localPath string) (*media.Object, error) {
	uploader.mu.Lock()
	defer uploader.mu.Unlock()

	if uploader.failPaths[localPath] {
		return nil, errors.New("media host rejected upload")
	}
	uploader.uploads = append(uploader.uploads, localPath)
	key := filepath.Base(localPath)
	return &media.Object{URL: "https://media.test/" + key, Key: key}, nil
}

func (uploader *fakeUploader) Delete(_ context.Context, key string) error {
	uploader.mu.Lock()
	defer uploader.mu.Unlock()

	uploader.deletes = append(uploader.deletes, key)
	return nil
}

// # Test Helpers

func newTestTokens(t *testing.T) *sec.TokenService {
	t.Helper()
	tokens, err := sec.NewTokenService(
		"access-secret-for-tests-only!!", "refresh-secret-for-tests-only!",
		15*time.Minute, 24*time.Hour, "vidora.app",
	)
	require.NoError(t, err)
	return tokens
}

func newTestService(t *testing.T) (*Service, *memoryUserRepository, *fakeUploader) {
	t.Helper()
	repository := newMemoryUserRepository()
	uploader := newFakeUploader()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	service := NewService(repository, newTestTokens(t), uploader, logger)
	return service, repository, uploader
}

func tempImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0o644))
	return path
}

func registerTestUser(t *testing.T, service *Service) *User {
	t.Helper()
	user, err := service.Register(context.Background(), RegisterInput{
		FullName:   "Chai Aur Code",
		Email:      "chai@example.com",
		Username:   "chaiaurcode",
		Password:   "correct-horse",
		AvatarPath: tempImage(t, "avatar.png"),
	})
	require.NoError(t, err)
	return user
}

// # Registration

func TestService_Register(t *testing.T) {
	t.Run("creates account and removes temp files", func(t *testing.T) {
		service, _, uploader := newTestService(t)

		avatarPath := tempImage(t, "avatar.png")
		coverPath := tempImage(t, "cover.jpg")

		user, err := service.Register(context.Background(), RegisterInput{
			FullName:       "Chai Aur Code",
			Email:          "Chai@Example.com",
			Username:       "ChaiAurCode",
			Password:       "correct-horse",
			AvatarPath:     avatarPath,
			CoverImagePath: coverPath,
		})
		require.NoError(t, err)

		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "chaiaurcode", user.Username)
		assert.Equal(t, "chai@example.com", user.Email)
		assert.NotEqual(t, "correct-horse", user.PasswordHash)
		assert.Contains(t, user.AvatarURL, "https://media.test/")
		assert.Contains(t, user.CoverImageURL, "https://media.test/")
		assert.Empty(t, user.RefreshTokenHash)

		assert.Len(t, uploader.uploads, 2)
		assert.NoFileExists(t, avatarPath)
		assert.NoFileExists(t, coverPath)
	})

	t.Run("rejects missing avatar without touching the store", func(t *testing.T) {
		service, repository, _ := newTestService(t)

		_, err := service.Register(context.Background(), RegisterInput{
			FullName: "Chai Aur Code",
			Email:    "chai@example.com",
			Username: "chaiaurcode",
			Password: "correct-horse",
		})
		require.Error(t, err)
		assert.Equal(t, 400, apperr.As(err).HTTPStatus)
		assert.Equal(t, 0, repository.count())
	})

	t.Run("rejects duplicate username or email", func(t *testing.T) {
		service, _, _ := newTestService(t)
		registerTestUser(t, service)

		_, err := service.Register(context.Background(), RegisterInput{
			FullName:   "Someone Else",
			Email:      "chai@example.com",
			Username:   "different",
			Password:   "another-pass",
			AvatarPath: tempImage(t, "avatar2.png"),
		})
		require.Error(t, err)
		assert.Equal(t, 409, apperr.As(err).HTTPStatus)
	})

	t.Run("aborts and cleans up when avatar upload fails", func(t *testing.T) {
		service, _, uploader := newTestService(t)

		avatarPath := tempImage(t, "avatar.png")
		uploader.failPaths[avatarPath] = true

		_, err := service.Register(context.Background(), RegisterInput{
			FullName:   "Chai Aur Code",
			Email:      "chai@example.com",
			Username:   "chaiaurcode",
			Password:   "correct-horse",
			AvatarPath: avatarPath,
		})
		require.Error(t, err)
		assert.Equal(t, 400, apperr.As(err).HTTPStatus)
		assert.NoFileExists(t, avatarPath)
	})

	t.Run("tolerates cover image upload failure", func(t *testing.T) {
		service, _, uploader := newTestService(t)

		coverPath := tempImage(t, "cover.jpg")
		uploader.failPaths[coverPath] = true

		user, err := service.Register(context.Background(), RegisterInput{
			FullName:       "Chai Aur Code",
			Email:          "chai@example.com",
			Username:       "chaiaurcode",
			Password:       "correct-horse",
			AvatarPath:     tempImage(t, "avatar.png"),
			CoverImagePath: coverPath,
		})
		require.NoError(t, err)
		assert.Empty(t, user.CoverImageURL)
		assert.NoFileExists(t, coverPath)
	})
}

// # Login

func TestService_Login(t *testing.T) {
	t.Run("issues token pair and stores refresh hash", func(t *testing.T) {
		service, repository, _ := newTestService(t)
		user := registerTestUser(t, service)

		session, err := service.Login(context.Background(), LoginInput{
			Username: "chaiaurcode",
			Password: "correct-horse",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, session.AccessToken)
		assert.NotEmpty(t, session.RefreshToken)
		assert.NotEqual(t, session.AccessToken, session.RefreshToken)
		assert.Equal(t, sec.HashToken(session.RefreshToken), repository.storedHash(user.ID))
	})

	t.Run("accepts email as identifier", func(t *testing.T) {
		service, _, _ := newTestService(t)
		registerTestUser(t, service)

		_, err := service.Login(context.Background(), LoginInput{
			Email:    "chai@example.com",
			Password: "correct-horse",
		})
		require.NoError(t, err)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		service, _, _ := newTestService(t)
		registerTestUser(t, service)

		_, err := service.Login(context.Background(), LoginInput{
			Username: "chaiaurcode",
			Password: "wrong-password",
		})
		require.Error(t, err)
		assert.Equal(t, 401, apperr.As(err).HTTPStatus)
	})

	t.Run("rejects unknown user", func(t *testing.T) {
		service, _, _ := newTestService(t)

		_, err := service.Login(context.Background(), LoginInput{
			Username: "nobody",
			Password: "whatever",
		})
		require.Error(t, err)
		assert.Equal(t, 404, apperr.As(err).HTTPStatus)
	})

	t.Run("rejects missing identifiers", func(t *testing.T) {
		service, _, _ := newTestService(t)

		_, err := service.Login(context.Background(), LoginInput{Password: "whatever"})
		require.Error(t, err)
		assert.Equal(t, 400, apperr.As(err).HTTPStatus)
	})

	t.Run("second login replaces the previous session", func(t *testing.T) {
		service, repository, _ := newTestService(t)
		user := registerTestUser(t, service)

		first, err := service.Login(context.Background(), LoginInput{
			Username: "chaiaurcode", Password: "correct-horse",
		})
		require.NoError(t, err)

		second, err := service.Login(context.Background(), LoginInput{
			Username: "chaiaurcode", Password: "correct-horse",
		})
		require.NoError(t, err)

		assert.Equal(t, sec.HashToken(second.RefreshToken), repository.storedHash(user.ID))

		// The first session's refresh token is no longer redeemable.
		_, err = service.Refresh(context.Background(), first.RefreshToken)
		require.Error(t, err)
		assert.Equal(t, 401, apperr.As(err).HTTPStatus)
	})
}

// # Refresh Rotation

func TestService_Refresh(t *testing.T) {
	t.Run("rotates the stored hash", func(t *testing.T) {
		service, repository, _ := newTestService(t)
		user := registerTestUser(t, service)

		session, err := service.Login(context.Background(), LoginInput{
			Username: "chaiaurcode", Password: "correct-horse",
		})
		require.NoError(t, err)

		rotated, err := service.Refresh(context.Background(), session.RefreshToken)
		require.NoError(t, err)

		assert.NotEmpty(t, rotated.AccessToken)
		assert.Equal(t, sec.HashToken(rotated.RefreshToken), repository.storedHash(user.ID))
	})

	t.Run("each refresh token is single use", func(t *testing.T) {
		service, _, _ := newTestService(t)
		registerTestUser(t, service)

		session, err := service.Login(context.Background(), LoginInput{
			Username: "chaiaurcode", Password: "correct-horse",
		})
		require.NoError(t, err)

		_, err = service.Refresh(context.Background(), session.RefreshToken)
		require.NoError(t, err)

		_, err = service.Refresh(context.Background(), session.RefreshToken)
		require.Error(t, err)
		assert.Equal(t, 401, apperr.As(err).HTTPStatus)
	})

	t.Run("rejects empty and malformed tokens", func(t *testing.T) {
		service, _, _ := newTestService(t)

		for _, token := range []string{"", "not-a-jwt", "aaaa.bbbb.cccc"} {
			_, err := service.Refresh(context.Background(), token)
			require.Error(t, err)
			assert.Equal(t, 401, apperr.As(err).HTTPStatus)
		}
	})

	t.Run("rejects refresh after logout", func(t *testing.T) {
		service, _, _ := newTestService(t)
		user := registerTestUser(t, service)

		session, err := service.Login(context.Background(), LoginInput{
			Username: "chaiaurcode", Password: "correct-horse",
		})
		require.NoError(t, err)

		require.NoError(t, service.Logout(context.Background(), user.ID))

		_, err = service.Refresh(context.Background(), session.RefreshToken)
		require.Error(t, err)
		assert.Equal(t, 401, apperr.As(err).HTTPStatus)
	})

	t.Run("rejects an access token presented as a refresh token", func(t *testing.T) {
		service, _, _ := newTestService(t)
		registerTestUser(t, service)

		session, err := service.Login(context.Background(), LoginInput{
			Username: "chaiaurcode", Password: "correct-horse",
		})
		require.NoError(t, err)

		_, err = service.Refresh(context.Background(), session.AccessToken)
		require.Error(t, err)
		assert.Equal(t, 401, apperr.As(err).HTTPStatus)
	})
}

// # Logout

func TestService_Logout_Idempotent(t *testing.T) {
	service, repository, _ := newTestService(t)
	user := registerTestUser(t, service)

	_, err := service.Login(context.Background(), LoginInput{
		Username: "chaiaurcode", Password: "correct-horse",
	})
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), user.ID))
	assert.Empty(t, repository.storedHash(user.ID))

	// Logging out again with no active session still succeeds.
	require.NoError(t, service.Logout(context.Background(), user.ID))
}

// # Password Change

func TestService_ChangePassword(t *testing.T) {
	t.Run("replaces the password", func(t *testing.T) {
		service, _, _ := newTestService(t)
		user := registerTestUser(t, service)

		err := service.ChangePassword(context.Background(), user.ID, "correct-horse", "battery-staple")
		require.NoError(t, err)

		_, err = service.Login(context.Background(), LoginInput{
			Username: "chaiaurcode", Password: "battery-staple",
		})
		require.NoError(t, err)

		_, err = service.Login(context.Background(), LoginInput{
			Username: "chaiaurcode", Password: "correct-horse",
		})
		require.Error(t, err)
	})

	t.Run("rejects wrong current password", func(t *testing.T) {
		service, _, _ := newTestService(t)
		user := registerTestUser(t, service)

		err := service.ChangePassword(context.Background(), user.ID, "wrong", "battery-staple")
		require.Error(t, err)
		assert.Equal(t, 401, apperr.As(err).HTTPStatus)
	})

	t.Run("keeps the active session valid", func(t *testing.T) {
		service, _, _ := newTestService(t)
		user := registerTestUser(t, service)

		session, err := service.Login(context.Background(), LoginInput{
			Username: "chaiaurcode", Password: "correct-horse",
		})
		require.NoError(t, err)

		require.NoError(t, service.ChangePassword(context.Background(), user.ID, "correct-horse", "battery-staple"))

		_, err = service.Refresh(context.Background(), session.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("rejects short new password", func(t *testing.T) {
		service, _, _ := newTestService(t)
		user := registerTestUser(t, service)

		err := service.ChangePassword(context.Background(), user.ID, "correct-horse", "tiny")
		require.Error(t, err)
		assert.Equal(t, 400, apperr.As(err).HTTPStatus)
	})
}
