// Package storage stores product images in a key-addressed object store.
// The S3 implementation works with AWS S3 and any S3-compatible provider.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Get when the object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage is the interface for writing and removing objects.
type ObjectStorage interface {
	// Put streams size bytes from body to bucket/key, tagging the object with contentType.
	Put(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) error
	// Delete removes bucket/key.
	Delete(ctx context.Context, bucket, key string) error
}
