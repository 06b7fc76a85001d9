// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "context"

// # Repository Contracts

/*
UserRepository defines the persistence boundary for the identity domain.

Description:

	Implementations must translate storage-level absence into
	apperr.NotFound so the service layer never inspects driver errors.
	RotateRefreshToken is the single concurrency-sensitive operation:
	it must be atomic at the storage level.
*/
type UserRepository interface {
	// Create persists a new account and fills in generated timestamps.
	Create(ctx context.Context, user *User) (*User, error)

	// FindByID loads an account by primary key.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByUsername loads an account by its unique lowercase handle.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindByEmail loads an account by its unique email address.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByUsernameOrEmail reports whether either identifier is taken.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// SetRefreshToken overwrites the stored refresh token hash, replacing
	// any previously active session for the user.
	SetRefreshToken(ctx context.Context, userID, tokenHash string) error

	// RotateRefreshToken swaps currentHash for newHash only if currentHash
	// is still the stored value. The compare and swap makes concurrent
	// refresh attempts with the same token resolve to exactly one winner;
	// the loser receives apperr.Unauthorized.
	RotateRefreshToken(ctx context.Context, userID, currentHash, newHash string) error

	// ClearRefreshToken removes the stored hash, ending the session.
	// Clearing an already-empty hash is not an error.
	ClearRefreshToken(ctx context.Context, userID string) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}
