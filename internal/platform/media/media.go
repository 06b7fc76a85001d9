// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package media provides the client for the external media host.

All profile imagery (avatars, cover images) is delegated to an S3-compatible
object store. This system only ever needs three capabilities from it:
upload a local file and get back a stable URL plus an identifier, and delete
a previously stored object by that identifier.

Architecture:

  - Uploader: The narrow contract consumed by the domain services.
  - Store: The concrete MinIO-backed implementation.
  - Object: The (URL, Key) pair persisted on the user record.
*/
package media

import "context"

// Object identifies a stored media asset.
type Object struct {
	// URL is the stable public URL served to clients.
	URL string `json:"url"`
	// Key is the object identifier used for later deletion.
	Key string `json:"key"`
}

// Uploader is the contract the domain services depend on.
//
// # Why an interface?
//
// The session lifecycle and profile services only need upload-by-path and
// delete-by-key; keeping the contract this narrow lets tests substitute an
// in-memory fake without any network dependency.
type Uploader interface {

	/*
		UploadImage uploads a local file to the media host.

		Parameters:
		  - context: context.Context
		  - localPath: string (Path to the spooled multipart file)

		Returns:
		  - *Object: Stable URL and object key
		  - error: Upload or connectivity failures
	*/
	UploadImage(context context.Context, localPath string) (*Object, error)

	/*
		Delete removes a previously stored object by its key.

		Parameters:
		  - context: context.Context
		  - key: string

		Returns:
		  - error: Deletion failures
	*/
	Delete(context context.Context, key string) error
}
