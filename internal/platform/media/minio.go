// Copyright (c) 2026 Vidora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/taibuivan/vidora/pkg/uuid"
)

// # MinIO-backed Store

// Store implements [Uploader] using MinIO/S3-compatible storage.
type Store struct {
	client        *minio.Client
	bucket        string
	region        string
	publicBaseURL string
	logger        *slog.Logger
}

// Config holds configuration for the S3-compatible media host.
type Config struct {
	Endpoint      string // host:port (e.g., "localhost:9000")
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PublicBaseURL string // CDN or gateway prefix for stable object URLs
}

// NewStore creates a new media [Store] with the given configuration.
func NewStore(cfg Config, logger *slog.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("media: failed to create client: %w", err)
	}

	return &Store{
		client:        client,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:        logger,
	}, nil
}

// EnsureBucket ensures the media bucket exists, creating it if necessary.
// Called once during startup.
func (store *Store) EnsureBucket(context context.Context) error {
	exists, err := store.client.BucketExists(context, store.bucket)
	if err != nil {
		return fmt.Errorf("media: bucket check failed: %w", err)
	}
	if exists {
		return nil
	}

	if err := store.client.MakeBucket(context, store.bucket, minio.MakeBucketOptions{
		Region: store.region,
	}); err != nil {
		return fmt.Errorf("media: bucket creation failed: %w", err)
	}

	return nil
}

/*
UploadImage uploads a local file to the media host.

Description: Generates a collision-free object key, streams the file from
disk (FPutObject), and returns the stable public URL plus the key.

Parameters:
  - context: context.Context
  - localPath: string

Returns:
  - *Object: Stable URL and object key
  - error: Upload or connectivity failures
*/
func (store *Store) UploadImage(context context.Context, localPath string) (*Object, error) {

	// Time-sortable key keeps bucket listings roughly chronological.
	extension := filepath.Ext(localPath)
	objectKey := uuid.New() + extension

	// Resolve the content type from the file extension, with a safe fallback.
	contentType := mime.TypeByExtension(extension)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := store.client.FPutObject(context, store.bucket, objectKey, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("media: upload failed: %w", err)
	}

	store.logger.Info("media_object_uploaded",
		slog.String("key", info.Key),
		slog.Int64("size", info.Size),
	)

	return &Object{
		URL: store.publicBaseURL + "/" + info.Key,
		Key: info.Key,
	}, nil
}

/*
Delete removes a stored object by its key.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - error: Deletion failures
*/
func (store *Store) Delete(context context.Context, key string) error {
	if key == "" {
		return nil
	}

	if err := store.client.RemoveObject(context, store.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("media: delete failed: %w", err)
	}

	return nil
}
