// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/vidora/internal/platform/constants"
	"github.com/taibuivan/vidora/internal/platform/media"
	"github.com/taibuivan/vidora/internal/platform/middleware"
	requestutil "github.com/taibuivan/vidora/internal/platform/request"
	"github.com/taibuivan/vidora/internal/platform/respond"
	"github.com/taibuivan/vidora/internal/platform/validate"
)

// # HTTP Layer

// Handler exposes the identity and session endpoints.
type Handler struct {
	service       *Service
	tempDir       string
	secureCookies bool
}

// NewHandler creates the identity HTTP handler. tempDir is where multipart
// uploads are spooled before being pushed to the media host.
func NewHandler(service *Service, tempDir string, secureCookies bool) *Handler {
	return &Handler{
		service:       service,
		tempDir:       tempDir,
		secureCookies: secureCookies,
	}
}

// Mount adds the identity endpoints to the shared users router. The
// profile handler mounts onto the same router, so the two route sets share
// one URL prefix.
func (handler *Handler) Mount(router chi.Router) {
	router.Post("/register", handler.Register)
	router.Post("/login", handler.Login)
	router.Post("/refresh-token", handler.RefreshToken)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)
		protected.Post("/logout", handler.Logout)
		protected.Get("/get-user", handler.GetCurrentUser)
		protected.Patch("/change-password", handler.ChangePassword)
	})
}

/*
Register handles POST /register.

Description:

	Accepts a multipart form with the account fields plus a mandatory
	avatar file and an optional coverImage file. Uploads are spooled to
	local disk before the service pushes them to the media host.
*/
func (handler *Handler) Register(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseMultipartForm(constants.MaxMultipartMemory); err != nil {
		respond.Error(writer, request, validate.RequiredError(FieldAvatar, "A multipart form is required"))
		return
	}

	input := RegisterInput{
		FullName: request.FormValue(FieldFullName),
		Email:    request.FormValue(FieldEmail),
		Username: request.FormValue(FieldUsername),
		Password: request.FormValue(FieldPassword),
	}

	avatarPath, err := media.SpoolFormFile(request, constants.MultipartFieldAvatar, handler.tempDir)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if avatarPath == "" {
		respond.Error(writer, request, validate.RequiredError(FieldAvatar, "Avatar image is required"))
		return
	}
	input.AvatarPath = avatarPath

	// Cover image is optional; absence is not an error.
	coverPath, err := media.SpoolFormFile(request, constants.MultipartFieldCoverImage, handler.tempDir)
	if err != nil {
		os.Remove(avatarPath)
		respond.Error(writer, request, err)
		return
	}
	input.CoverImagePath = coverPath

	user, err := handler.service.Register(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user, "User registered successfully")
}

// loginRequest is the JSON body accepted by Login.
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse mirrors the token pair in the body for non-cookie clients.
type loginResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

/*
Login handles POST /login.

Description:

	Authenticates by username or email plus password. On success the token
	pair is delivered twice: as HttpOnly cookies and in the response body.
*/
func (handler *Handler) Login(writer http.ResponseWriter, request *http.Request) {
	var body loginRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.Login(request.Context(), LoginInput{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session)
	respond.OK(writer, loginResponse{
		User:         session.User,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, "User logged in successfully")
}

// Logout handles POST /logout. Requires authentication.
func (handler *Handler) Logout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Logout(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearSessionCookies(writer)
	respond.OK(writer, struct{}{}, "User logged out successfully")
}

// refreshRequest is the body fallback when the refresh cookie is absent.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

/*
RefreshToken handles POST /refresh-token.

Description:

	Reads the refresh token from the refreshToken cookie first, then from
	the JSON body. Does not require an access token, expired access tokens
	are the normal reason for calling this endpoint.
*/
func (handler *Handler) RefreshToken(writer http.ResponseWriter, request *http.Request) {
	presented := ""
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var body refreshRequest
		if err := requestutil.DecodeJSON(request, &body); err == nil {
			presented = body.RefreshToken
		}
	}

	session, err := handler.service.Refresh(request.Context(), presented)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session)
	respond.OK(writer, map[string]string{
		FieldAccessToken:  session.AccessToken,
		FieldRefreshToken: session.RefreshToken,
	}, "Access token refreshed successfully")
}

// GetCurrentUser handles GET /get-user. Requires authentication.
func (handler *Handler) GetCurrentUser(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.CurrentUser(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user, "Current user fetched successfully")
}

// changePasswordRequest is the JSON body accepted by ChangePassword.
type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword handles PATCH /change-password. Requires authentication.
func (handler *Handler) ChangePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body changePasswordRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.ChangePassword(request.Context(), userID, body.CurrentPassword, body.NewPassword)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, struct{}{}, "Password changed successfully")
}

// # Cookie Helpers

func (handler *Handler) setSessionCookies(writer http.ResponseWriter, session *Session) {
	http.SetCookie(writer, handler.sessionCookie(constants.AccessTokenCookieName, session.AccessToken, session.AccessTokenTTL))
	http.SetCookie(writer, handler.sessionCookie(constants.RefreshTokenCookieName, session.RefreshToken, session.RefreshTokenTTL))
}

func (handler *Handler) clearSessionCookies(writer http.ResponseWriter) {
	http.SetCookie(writer, handler.sessionCookie(constants.AccessTokenCookieName, "", -time.Hour))
	http.SetCookie(writer, handler.sessionCookie(constants.RefreshTokenCookieName, "", -time.Hour))
}

func (handler *Handler) sessionCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     constants.SessionCookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}

