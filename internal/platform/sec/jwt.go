// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces defined at the point of use.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/vidora/pkg/uuid"
)

// ErrInvalidToken is the single sentinel for every verification failure.
//
// # Why one error?
//
// Expired, malformed, and bad-signature tokens are deliberately
// indistinguishable to callers. The transport maps all of them to a uniform
// 401 so the client learns nothing about why a credential was rejected.
var ErrInvalidToken = errors.New("sec: invalid token")

// AuthClaims represents the payload embedded inside a Vidora JWT.
//
// # Why custom claims?
//
// By embedding the UserID and Username directly inside the access token,
// the request authenticator can identify the caller before touching the
// database. The refresh token carries only the UserID.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID   string `json:"uid"`
	Username string `json:"unm,omitempty"`
}

// TokenService issues and verifies the two token classes of the credential
// scheme. Access and refresh tokens are signed with distinct HS256 secrets
// and carry independent expiries.
//
// The service is pure computation: no persistence, no side effects.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

// NewTokenService creates a new TokenService.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) (*TokenService, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("sec: token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("sec: access and refresh secrets must differ")
	}

	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
	}, nil
}

// AccessTokenTTL exposes the configured access-token lifetime for cookie expiry.
func (service *TokenService) AccessTokenTTL() time.Duration { return service.accessTTL }

// RefreshTokenTTL exposes the configured refresh-token lifetime for cookie expiry.
func (service *TokenService) RefreshTokenTTL() time.Duration { return service.refreshTTL }

// IssueAccessToken creates a signed, short-lived JWT embedding the user identity.
func (service *TokenService) IssueAccessToken(userID, username string) (string, error) {
	return service.sign(userID, username, service.accessSecret, service.accessTTL)
}

// IssueRefreshToken creates a signed, long-lived JWT embedding only the user ID.
func (service *TokenService) IssueRefreshToken(userID string) (string, error) {
	return service.sign(userID, "", service.refreshSecret, service.refreshTTL)
}

// VerifyAccessToken checks the signature and validity of an access token.
func (service *TokenService) VerifyAccessToken(tokenString string) (*AuthClaims, error) {
	return service.verify(tokenString, service.accessSecret)
}

// VerifyRefreshToken checks the signature and validity of a refresh token.
func (service *TokenService) VerifyRefreshToken(tokenString string) (*AuthClaims, error) {
	return service.verify(tokenString, service.refreshSecret)
}

// sign builds and signs a token for the given payload, secret, and lifetime.
func (service *TokenService) sign(userID, username string, secret []byte, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps every issued token unique. Timestamps alone have
			// second precision, so two tokens minted in the same second would
			// otherwise be byte-identical and rotation would be a no-op.
			ID:        uuid.New(),
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:   userID,
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// verify parses a token string against the given secret.
//
// Every failure mode collapses into [ErrInvalidToken].
func (service *TokenService) verify(tokenString string, secret []byte) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
