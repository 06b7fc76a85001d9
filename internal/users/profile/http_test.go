// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidora/internal/platform/middleware"
	"github.com/taibuivan/vidora/internal/platform/sec"
)

// staticVerifier accepts exactly one token and maps it to a fixed user ID.
type staticVerifier struct {
	token  string
	userID string
}

func (verifier *staticVerifier) VerifyAccessToken(tokenStr string) (*sec.AuthClaims, error) {
	if tokenStr != verifier.token {
		return nil, errors.New("bad token")
	}
	return &sec.AuthClaims{UserID: verifier.userID}, nil
}

func newProfileRouter(t *testing.T) (chi.Router, *memoryRepository) {
	t.Helper()
	service, repository, _, _ := newTestService(t)
	handler := NewHandler(service, t.TempDir())

	verifier := &staticVerifier{token: "good-token", userID: "viewer-1"}
	resolve := func(_ context.Context, userID string) (*sec.Identity, error) {
		return &sec.Identity{ID: userID, Username: "viewer"}, nil
	}

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(verifier, resolve))
	handler.Mount(router)
	return router, repository
}

func TestHandler_ChannelProfile(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		router, repository := newProfileRouter(t)
		seedChannel(repository, "chaiaurcode")

		request := httptest.NewRequest(http.MethodGet, "/channel/chaiaurcode", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("returns the channel aggregate", func(t *testing.T) {
		router, repository := newProfileRouter(t)
		channel := seedChannel(repository, "chaiaurcode")
		repository.subscriptions["viewer-1->"+channel.ID] = true

		request := httptest.NewRequest(http.MethodGet, "/channel/chaiaurcode", nil)
		request.Header.Set("Authorization", "Bearer good-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)
		var envelope map[string]any
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))

		data := envelope["data"].(map[string]any)
		assert.Equal(t, "chaiaurcode", data["username"])
		assert.Equal(t, float64(42), data["subscribersCount"])
		assert.Equal(t, true, data["isSubscribed"])
	})

	t.Run("unknown channel is 404", func(t *testing.T) {
		router, _ := newProfileRouter(t)

		request := httptest.NewRequest(http.MethodGet, "/channel/ghost", nil)
		request.Header.Set("Authorization", "Bearer good-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		require.Equal(t, http.StatusNotFound, recorder.Code)
		var envelope map[string]any
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
		assert.Equal(t, false, envelope["success"])
	})
}

func TestHandler_UpdateAccount(t *testing.T) {
	router, repository := newProfileRouter(t)
	seedAccount(repository, "viewer-1", "viewer")

	payload := `{"fullName":"New Name","email":"new@example.com"}`
	request := httptest.NewRequest(http.MethodPatch, "/update-user", strings.NewReader(payload))
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer good-token")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var envelope map[string]any
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))

	data := envelope["data"].(map[string]any)
	assert.Equal(t, "New Name", data["fullName"])
	assert.NotContains(t, data, "passwordHash")
}

func TestHandler_WatchHistory(t *testing.T) {
	router, _ := newProfileRouter(t)

	request := httptest.NewRequest(http.MethodGet, "/history", nil)
	request.Header.Set("Authorization", "Bearer good-token")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var envelope map[string]any
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))

	// Empty history serializes as an empty array, never null.
	data, ok := envelope["data"].([]any)
	require.True(t, ok)
	assert.Empty(t, data)
}
