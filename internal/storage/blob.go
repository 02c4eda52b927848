// Package storage adapts the external blob store used for uploaded files.
package storage

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no blob store was configured.
var ErrNotConfigured = errors.New("storage: blob store not configured")

// Object is a stored blob.
type Object struct {
	URL  string
	Path string
}

// BlobStore is the external blob store collaborator.
type BlobStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (*Object, error)
	Delete(ctx context.Context, bucket string, paths ...string) error
}
