// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/vidora/internal/platform/apperr"
	"github.com/taibuivan/vidora/internal/platform/constants"
	"github.com/taibuivan/vidora/internal/platform/media"
	"github.com/taibuivan/vidora/internal/platform/middleware"
	requestutil "github.com/taibuivan/vidora/internal/platform/request"
	"github.com/taibuivan/vidora/internal/platform/respond"
	"github.com/taibuivan/vidora/internal/users/auth"
)

// # HTTP Layer

// Handler exposes the profile, history, and account media endpoints.
type Handler struct {
	service *Service
	tempDir string
}

// NewHandler creates the profile HTTP handler.
func NewHandler(service *Service, tempDir string) *Handler {
	return &Handler{service: service, tempDir: tempDir}
}

// Mount adds the profile endpoints to the shared users router. Every route
// requires an authenticated caller.
func (handler *Handler) Mount(router chi.Router) {
	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)

		protected.Patch("/update-user", handler.UpdateAccount)
		protected.Patch("/update-avatar", handler.UpdateAvatar)
		protected.Patch("/update-coverimage", handler.UpdateCoverImage)
		protected.Get("/channel/{username}", handler.ChannelProfile)
		protected.Get("/history", handler.WatchHistory)
		protected.Post("/history/{videoId}", handler.RecordWatch)
	})
}

// updateAccountRequest is the JSON body accepted by UpdateAccount.
type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// UpdateAccount handles PATCH /update-user.
func (handler *Handler) UpdateAccount(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body updateAccountRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.UpdateAccount(request.Context(), userID, body.FullName, body.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user, "Account details updated successfully")
}

// UpdateAvatar handles PATCH /update-avatar. Expects a multipart form with
// an avatar file.
func (handler *Handler) UpdateAvatar(writer http.ResponseWriter, request *http.Request) {
	handler.replaceMedia(writer, request, constants.MultipartFieldAvatar,
		handler.service.UpdateAvatar, "Avatar updated successfully")
}

// UpdateCoverImage handles PATCH /update-coverimage. Expects a multipart
// form with a coverImage file.
func (handler *Handler) UpdateCoverImage(writer http.ResponseWriter, request *http.Request) {
	handler.replaceMedia(writer, request, constants.MultipartFieldCoverImage,
		handler.service.UpdateCoverImage, "Cover image updated successfully")
}

// ChannelProfile handles GET /channel/{username}.
func (handler *Handler) ChannelProfile(writer http.ResponseWriter, request *http.Request) {
	viewer, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	username := requestutil.Param(request, auth.FieldUsername)
	channel, err := handler.service.ChannelProfile(request.Context(), username, viewer.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, channel, "Channel profile fetched successfully")
}

// WatchHistory handles GET /history.
func (handler *Handler) WatchHistory(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	history, err := handler.service.WatchHistory(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, history, "Watch history fetched successfully")
}

// RecordWatch handles POST /history/{videoId}.
func (handler *Handler) RecordWatch(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	videoID := requestutil.Param(request, "videoId")
	if err := handler.service.RecordWatch(request.Context(), userID, videoID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, struct{}{}, "Watch event recorded successfully")
}

// # Helpers

func (handler *Handler) replaceMedia(
	writer http.ResponseWriter,
	request *http.Request,
	field string,
	update func(ctx context.Context, userID, localPath string) (*auth.User, error),
	message string,
) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := request.ParseMultipartForm(constants.MaxMultipartMemory); err != nil {
		respond.Error(writer, request, apperr.UploadFailed("A multipart form is required", err))
		return
	}

	localPath, err := media.SpoolFormFile(request, field, handler.tempDir)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := update(request.Context(), userID, localPath)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user, message)
}
