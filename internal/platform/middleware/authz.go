// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/vidora/internal/platform/apperr"
	"github.com/taibuivan/vidora/internal/platform/constants"
	"github.com/taibuivan/vidora/internal/platform/ctxutil"
	"github.com/taibuivan/vidora/internal/platform/respond"
	"github.com/taibuivan/vidora/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify access tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the concrete
// [sec.TokenService], allowing us to easily inject fakes during unit testing.
type TokenVerifier interface {
	VerifyAccessToken(tokenStr string) (*sec.AuthClaims, error)
}

// ResolveFunc loads the sanitized identity for a verified user ID.
//
// A valid signature is not enough: the referenced account must still exist.
// The resolver is the only storage touch-point of the authenticator — the
// stored refresh token is never consulted here.
type ResolveFunc func(ctx context.Context, userID string) (*sec.Identity, error)

// Authenticate extracts and verifies the bearer credential on every request.
//
// # Flow
//  1. Read the token from the accessToken cookie, falling back to the
//     'Authorization: Bearer <token>' header.
//  2. If absent, the request proceeds as anonymous (protected routes are
//     blocked later by [RequireAuth]).
//  3. Verify the signature and expiry via [TokenVerifier].
//  4. Resolve the referenced user; a vanished account is treated exactly
//     like a bad token.
//  5. Inject the sanitized [*sec.Identity] into the request context.
//
// Every failure mode produces the same uniform 401 — the client never learns
// whether the token was absent, expired, forged, or orphaned.
func Authenticate(verifier TokenVerifier, resolve ResolveFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Credential Extraction ──────────────────────────────────────
			tokenStr := bearerToken(request)
			if tokenStr == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyAccessToken(tokenStr)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Unauthorized request"))
				return
			}

			// ── 3. Identity Resolution ────────────────────────────────────────
			user, err := resolve(request.Context(), claims.UserID)
			if err != nil || user == nil {
				respond.Error(writer, request, apperr.Unauthorized("Unauthorized request"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), user)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.Identity] exists in context.
//  2. If missing, abort with HTTP 401 Unauthorized.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Unauthorized request"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// bearerToken reads the access token from the session cookie or the
// Authorization header. The cookie takes precedence.
func bearerToken(request *http.Request) string {
	if cookie, err := request.Cookie(constants.AccessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
