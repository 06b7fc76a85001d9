// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidora/internal/platform/sec"
)

func newTestService(t *testing.T, accessTTL, refreshTTL time.Duration) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService("access-secret", "refresh-secret", accessTTL, refreshTTL, "vidora.test")
	require.NoError(t, err)
	return service
}

/*
TestTokenService_RoundTrip verifies issue/verify symmetry for both token classes.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTestService(t, 15*time.Minute, 24*time.Hour)

	accessToken, err := service.IssueAccessToken("user-123", "alice")
	require.NoError(t, err)

	claims, err := service.VerifyAccessToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	refreshToken, err := service.IssueRefreshToken("user-123")
	require.NoError(t, err)

	claims, err = service.VerifyRefreshToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Empty(t, claims.Username)
}

/*
TestTokenService_DistinctSecrets ensures an access token never verifies as a
refresh token and vice versa.
*/
func TestTokenService_DistinctSecrets(t *testing.T) {
	service := newTestService(t, 15*time.Minute, 24*time.Hour)

	accessToken, err := service.IssueAccessToken("user-123", "alice")
	require.NoError(t, err)

	_, err = service.VerifyRefreshToken(accessToken)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)

	refreshToken, err := service.IssueRefreshToken("user-123")
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(refreshToken)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

/*
TestTokenService_UniqueTokens verifies that back-to-back issuance always
produces distinct token strings.

Rotation relies on this: the stored hash must change on every refresh, even
when the replacement token is minted within the same second as the one it
replaces.
*/
func TestTokenService_UniqueTokens(t *testing.T) {
	service := newTestService(t, 15*time.Minute, 24*time.Hour)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		refreshToken, err := service.IssueRefreshToken("user-123")
		require.NoError(t, err)
		assert.False(t, seen[refreshToken], "token issued twice")
		seen[refreshToken] = true
	}

	first, err := service.IssueAccessToken("user-123", "alice")
	require.NoError(t, err)
	second, err := service.IssueAccessToken("user-123", "alice")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

/*
TestTokenService_Expired verifies that an expired token is rejected with the
uniform sentinel.
*/
func TestTokenService_Expired(t *testing.T) {
	service := newTestService(t, -1*time.Minute, 24*time.Hour)

	expiredToken, err := service.IssueAccessToken("user-123", "alice")
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(expiredToken)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

/*
TestTokenService_Malformed covers garbage input and tokens signed elsewhere.
*/
func TestTokenService_Malformed(t *testing.T) {
	service := newTestService(t, 15*time.Minute, 24*time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9.e30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.VerifyAccessToken(tt.token)
			assert.ErrorIs(t, err, sec.ErrInvalidToken)
		})
	}

	// Token signed by a service with different secrets
	foreign, err := sec.NewTokenService("other-access", "other-refresh", time.Minute, time.Hour, "vidora.test")
	require.NoError(t, err)

	foreignToken, err := foreign.IssueAccessToken("user-123", "alice")
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(foreignToken)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

/*
TestNewTokenService_Guards checks the constructor's secret invariants.
*/
func TestNewTokenService_Guards(t *testing.T) {
	_, err := sec.NewTokenService("", "refresh", time.Minute, time.Hour, "vidora.test")
	assert.Error(t, err)

	_, err = sec.NewTokenService("same", "same", time.Minute, time.Hour, "vidora.test")
	assert.Error(t, err)
}

/*
TestHashToken verifies digest determinism and input sensitivity.
*/
func TestHashToken(t *testing.T) {
	first := sec.HashToken("token-a")
	second := sec.HashToken("token-a")
	other := sec.HashToken("token-b")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64) // SHA-256 hex
}

/*
TestPasswordHashing verifies the bcrypt round trip.
*/
func TestPasswordHashing(t *testing.T) {
	hash, err := sec.HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.True(t, sec.CheckPasswordHash("s3cret-password", hash))
	assert.False(t, sec.CheckPasswordHash("wrong-password", hash))
}
