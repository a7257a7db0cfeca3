package model

import (
	"context"
	"io"
)

// Storage is the narrow object-storage interface used for product and
// marketing media managed through the admin console.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
