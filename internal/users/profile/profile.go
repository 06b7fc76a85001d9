// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package profile implements channel profiles, watch history, and account
media management.

It aggregates over the subscription graph and the video catalog to answer
the read-heavy "channel page" and "history page" queries, and owns the
account mutations that replace profile media on the media host.

# Architecture

Channel statistics are viewer-independent and served through a short-lived
Redis read cache. The viewer-specific isSubscribed flag is always resolved
fresh so a cached profile can never leak another viewer's subscription
state.
*/
package profile

import (
	"context"
	"time"

	"github.com/taibuivan/vidora/internal/users/auth"
)

// # Domain Entities

// ChannelProfile is the public channel page aggregate.
type ChannelProfile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	AvatarURL     string `json:"avatar"`
	CoverImageURL string `json:"coverImage,omitempty"`

	SubscriberCount   int64 `json:"subscribersCount"`
	SubscribedToCount int64 `json:"channelsSubscribedToCount"`

	// IsSubscribed is viewer-specific and never cached.
	IsSubscribed bool `json:"isSubscribed"`
}

// VideoOwner is the public slice of a video's channel shown in listings.
type VideoOwner struct {
	FullName  string `json:"fullName"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

// WatchedVideo is one entry of a user's watch history, in insertion order.
// Re-watching a video appends a new entry rather than moving the old one.
type WatchedVideo struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	VideoFileURL string     `json:"videoFile"`
	ThumbnailURL string     `json:"thumbnail"`
	Duration     float64    `json:"duration"`
	Views        int64      `json:"views"`
	CreatedAt    time.Time  `json:"createdAt"`
	Owner        VideoOwner `json:"owner"`
	WatchedAt    time.Time  `json:"watchedAt"`
}

// # Repository Contracts

// Repository defines the persistence boundary for profile reads and
// account mutations.
type Repository interface {
	// ChannelByUsername aggregates the viewer-independent channel page
	// fields. Returns apperr.NotFound when no such account exists.
	ChannelByUsername(ctx context.Context, username string) (*ChannelProfile, error)

	// IsSubscribed reports whether viewerID subscribes to channelID.
	IsSubscribed(ctx context.Context, viewerID, channelID string) (bool, error)

	// WatchHistory lists the user's watch events joined to videos and
	// their owners, oldest first. A user with no history yields an empty
	// slice, never an error.
	WatchHistory(ctx context.Context, userID string) ([]WatchedVideo, error)

	// RecordWatch appends a watch event for the video.
	RecordWatch(ctx context.Context, userID, videoID string) error

	// UpdateAccount changes the mutable account fields and returns the
	// updated row. A duplicate email yields apperr.Conflict.
	UpdateAccount(ctx context.Context, userID, fullName, email string) (*auth.User, error)

	// ReplaceAvatar swaps the stored avatar reference and returns the
	// previous media key alongside the updated account.
	ReplaceAvatar(ctx context.Context, userID, url, key string) (previousKey string, user *auth.User, err error)

	// ReplaceCoverImage swaps the stored cover image reference and returns
	// the previous media key alongside the updated account.
	ReplaceCoverImage(ctx context.Context, userID, url, key string) (previousKey string, user *auth.User, err error)
}

// Cache is the read cache for viewer-independent channel statistics.
// Implementations treat every failure as a miss; the cache is never
// allowed to fail a request.
type Cache interface {
	GetChannel(ctx context.Context, username string) (*ChannelProfile, bool)
	SetChannel(ctx context.Context, username string, channel *ChannelProfile)
	InvalidateChannel(ctx context.Context, username string)
}
