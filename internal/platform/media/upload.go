// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/taibuivan/vidora/internal/platform/apperr"
)

// # Multipart Spooling

/*
SpoolFormFile copies the named multipart file to tempDir and returns the
local path.

Description:

	Handlers spool uploads to local disk before handing them to the media
	host, so the HTTP body can be released early and retries never re-read
	the request. A missing file is not an error; callers decide whether the
	field was mandatory.

Returns:
  - string: the spooled file path, or "" when the field is absent
  - error: apperr.UploadFailed on any I/O failure
*/
func SpoolFormFile(request *http.Request, field, tempDir string) (string, error) {
	file, header, err := request.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", apperr.UploadFailed("Failed to read uploaded file", err)
	}
	defer file.Close()

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", apperr.UploadFailed("Failed to prepare upload directory", err)
	}

	extension := filepath.Ext(header.Filename)
	target, err := os.CreateTemp(tempDir, "upload-*"+extension)
	if err != nil {
		return "", apperr.UploadFailed("Failed to spool uploaded file", err)
	}
	defer target.Close()

	if _, err := io.Copy(target, file); err != nil {
		os.Remove(target.Name())
		return "", apperr.UploadFailed("Failed to spool uploaded file", err)
	}
	return target.Name(), nil
}
