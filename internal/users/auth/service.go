// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/taibuivan/vidora/internal/platform/apperr"
	"github.com/taibuivan/vidora/internal/platform/media"
	"github.com/taibuivan/vidora/internal/platform/sec"
	"github.com/taibuivan/vidora/internal/platform/validate"
)

// # Service Contracts

// TokenProvider mints and verifies the two session token kinds. Satisfied
// by sec.TokenService; abstracted so service tests can use a deterministic
// implementation.
type TokenProvider interface {
	IssueAccessToken(userID, username string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	VerifyRefreshToken(token string) (*sec.AuthClaims, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

// # Input / Output Models

// RegisterInput carries the registration form fields plus the local paths
// of the spooled multipart uploads. CoverImagePath may be empty.
type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// LoginInput identifies the account by username or email, never both
// required.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Session bundles the freshly minted token pair with the authenticated
// user, ready for the transport layer to set cookies from.
type Session struct {
	User            *User
	AccessToken     string
	RefreshToken    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// # Service Implementation

// Service implements the identity and session lifecycle operations.
type Service struct {
	users    UserRepository
	tokens   TokenProvider
	uploader media.Uploader
	logger   *slog.Logger
}

// NewService wires the identity service with its collaborators.
func NewService(users UserRepository, tokens TokenProvider, uploader media.Uploader, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		uploader: uploader,
		logger:   logger,
	}
}

/*
Register creates a new account from validated form input and uploaded media.

Description:

	Validates and normalizes the form fields, rejects duplicate identifiers,
	uploads the mandatory avatar (and optional cover image) to the media
	host, then persists the account. The spooled temp files are always
	removed before returning, on success and on every failure path.

Parameters:
  - context: request-scoped context
  - input: registration fields and spooled upload paths

Returns:
  - *User: the created account, safe to serialize
  - error: apperr.ValidationError, apperr.Conflict, or apperr.UploadFailed
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	defer service.removeTempFile(input.AvatarPath)
	defer service.removeTempFile(input.CoverImagePath)

	// 1. Normalize identifiers before any checks.
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)

	validator := validate.New().
		Required(FieldFullName, input.FullName).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldUsername, input.Username).
		Username(FieldUsername, input.Username).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Custom(FieldAvatar, input.AvatarPath == "", "Avatar image is required")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 2. Reject duplicate username or email up front.
	taken, err := service.users.ExistsByUsernameOrEmail(context, input.Username, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Conflict("User with email or username already exists")
	}

	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	// 3. Avatar upload is mandatory; a failure aborts registration.
	avatar, err := service.uploader.UploadImage(context, input.AvatarPath)
	if err != nil {
		return nil, apperr.UploadFailed("Failed to upload avatar image", err)
	}

	// 4. Cover image failures are tolerated; the account is still created.
	var cover *media.Object
	if input.CoverImagePath != "" {
		cover, err = service.uploader.UploadImage(context, input.CoverImagePath)
		if err != nil {
			service.logger.Warn("cover image upload failed, continuing registration",
				"username", input.Username, "error", err)
			cover = nil
		}
	}

	user := &User{
		Username:     input.Username,
		Email:        input.Email,
		FullName:     input.FullName,
		PasswordHash: passwordHash,
		AvatarURL:    avatar.URL,
		AvatarKey:    avatar.Key,
	}
	if cover != nil {
		user.CoverImageURL = cover.URL
		user.CoverImageKey = cover.Key
	}

	created, err := service.users.Create(context, user)
	if err != nil {
		return nil, err
	}

	service.logger.Info("user registered", "user_id", created.ID, "username", created.Username)
	return created, nil
}

/*
Login authenticates by username or email plus password and opens a session.

Description:

	Looks up the account, verifies the password, then mints a fresh token
	pair and stores the refresh token hash, replacing any previously active
	session for the user.

Returns:
  - *Session: token pair and user on success
  - error: apperr.ValidationError, apperr.NotFound, or apperr.Unauthorized
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Session, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Username == "" && input.Email == "" {
		return nil, validate.RequiredError(FieldUsername, "Username or email is required")
	}
	if input.Password == "" {
		return nil, validate.RequiredError(FieldPassword, "Password is required")
	}

	var (
		user *User
		err  error
	)
	if input.Username != "" {
		user, err = service.users.FindByUsername(context, input.Username)
	} else {
		user, err = service.users.FindByEmail(context, input.Email)
	}
	if err != nil {
		return nil, err
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid user credentials")
	}

	session, err := service.openSession(user)
	if err != nil {
		return nil, err
	}

	// Storing the new hash invalidates whatever refresh token the user
	// held before this login.
	if err := service.users.SetRefreshToken(context, user.ID, sec.HashToken(session.RefreshToken)); err != nil {
		return nil, err
	}

	service.logger.Info("user logged in", "user_id", user.ID)
	return session, nil
}

/*
Logout ends the caller's session by discarding the stored refresh hash.

Description:

	Idempotent: logging out with no active session succeeds. The access
	token remains cryptographically valid until expiry, which is why the
	transport layer also clears both cookies.
*/
func (service *Service) Logout(context context.Context, userID string) error {
	if err := service.users.ClearRefreshToken(context, userID); err != nil {
		return err
	}
	service.logger.Info("user logged out", "user_id", userID)
	return nil
}

/*
Refresh exchanges a valid single-use refresh token for a new token pair.

Description:

	Verifies the presented token's signature and expiry, resolves the user,
	and rotates the stored hash through a compare-and-swap so a token can
	be redeemed at most once even under concurrent requests.

Returns:
  - *Session: the replacement token pair
  - error: apperr.Unauthorized for every verification failure
*/
func (service *Service) Refresh(context context.Context, presentedToken string) (*Session, error) {
	if presentedToken == "" {
		return nil, apperr.Unauthorized("Unauthorized request")
	}

	claims, err := service.tokens.VerifyRefreshToken(presentedToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	user, err := service.users.FindByID(context, claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	presentedHash := sec.HashToken(presentedToken)
	if user.RefreshTokenHash == "" || user.RefreshTokenHash != presentedHash {
		return nil, apperr.Unauthorized("Refresh token is expired or already used")
	}

	session, err := service.openSession(user)
	if err != nil {
		return nil, err
	}

	// The swap only succeeds if presentedHash is still the stored value,
	// so a concurrent redeem of the same token loses here.
	err = service.users.RotateRefreshToken(context, user.ID, presentedHash, sec.HashToken(session.RefreshToken))
	if err != nil {
		return nil, err
	}

	service.logger.Info("session refreshed", "user_id", user.ID)
	return session, nil
}

/*
ChangePassword replaces the caller's password after verifying the current one.

Description:

	Changing the password does not rotate the refresh token; existing
	sessions on other devices stay valid until their tokens expire.

Returns:
  - error: apperr.ValidationError, apperr.Unauthorized on a wrong current
    password, or a storage error
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword string) error {
	validator := validate.New().
		Required(FieldCurrentPassword, currentPassword).
		Required(FieldNewPassword, newPassword).
		MinLen(FieldNewPassword, newPassword, 8)
	if err := validator.Err(); err != nil {
		return err
	}

	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Invalid current password")
	}

	newHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := service.users.UpdatePassword(context, userID, newHash); err != nil {
		return err
	}

	service.logger.Info("password changed", "user_id", userID)
	return nil
}

// CurrentUser loads the full account record for the authenticated caller.
func (service *Service) CurrentUser(context context.Context, userID string) (*User, error) {
	return service.users.FindByID(context, userID)
}

// ResolveIdentity loads the sanitized identity for the request authenticator.
func (service *Service) ResolveIdentity(context context.Context, userID string) (*sec.Identity, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

// # Helpers

func (service *Service) openSession(user *User) (*Session, error) {
	accessToken, err := service.tokens.IssueAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refreshToken, err := service.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{
		User:            user,
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessTokenTTL:  service.tokens.AccessTokenTTL(),
		RefreshTokenTTL: service.tokens.RefreshTokenTTL(),
	}, nil
}

func (service *Service) removeTempFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		service.logger.Warn("failed to remove temp upload", "path", path, "error", err)
	}
}
