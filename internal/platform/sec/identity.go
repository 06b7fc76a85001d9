// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "time"

// # Resolved Identity

// Identity is the sanitized representation of an authenticated user that the
// request authenticator attaches to the request context.
//
// # Security
//
// It deliberately carries no password hash and no refresh-token hash, so
// downstream handlers can return it to clients verbatim.
type Identity struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
