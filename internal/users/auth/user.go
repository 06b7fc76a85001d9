// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session lifecycle layer.

It defines the core domain entity (User) and the logic for registration,
authentication, and the two-token credential scheme.

# Architecture

This layer is the "Truth" of the system. The entity defined here has no
external dependencies and encapsulates all business rules related to user
identity and session rotation.
*/
package auth

import (
	"time"

	"github.com/taibuivan/vidora/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the Vidora platform.
//
// # Security
//
// PasswordHash and RefreshTokenHash are explicitly omitted from JSON so the
// entity can be returned to clients verbatim. RefreshTokenHash is non-empty
// only while a session is active; it holds the SHA-256 digest of the single
// currently valid refresh token.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	PasswordHash  string `json:"-"`
	AvatarURL     string `json:"avatar"`
	AvatarKey     string `json:"-"` // Media-host identifier, needed for replacement deletes.
	CoverImageURL string `json:"coverImage,omitempty"`
	CoverImageKey string `json:"-"`

	// RefreshTokenHash is the server-side half of the revocation check.
	// Exactly one valid refresh token exists per user at any time.
	RefreshTokenHash string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity returns the sanitized representation attached to request contexts.
func (user *User) Identity() *sec.Identity {
	return &sec.Identity{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		FullName:      user.FullName,
		AvatarURL:     user.AvatarURL,
		CoverImageURL: user.CoverImageURL,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldFullName        = "fullName"
	FieldPassword        = "password"
	FieldAvatar          = "avatar"
	FieldCoverImage      = "coverImage"
	FieldRefreshToken    = "refreshToken"
	FieldAccessToken     = "accessToken"
	FieldCurrentPassword = "currentPassword"
	FieldNewPassword     = "newPassword"
	FieldUser            = "user"
)
