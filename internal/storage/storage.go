// Package storage keeps uploaded resume files in an object store.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("object not found")

// Blob is a flat key/value object store.
type Blob interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
