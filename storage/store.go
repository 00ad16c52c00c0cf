package storage

import (
	"context"
	"errors"

	"threadhub/post"
)

// ErrSettingNotFound is returned when a setting has never been stored.
var ErrSettingNotFound = errors.New("setting not found")

// Store is the post table. Implementations return copies; callers never
// hold references into stored records. Missing posts surface as
// post.ErrNotFound.
type Store interface {
	// List returns every post in encounter order.
	List(ctx context.Context) ([]post.Post, error)
	Get(ctx context.Context, id int64) (post.Post, error)
	// Create assigns the next identifier and puts the post first in
	// encounter order.
	Create(ctx context.Context, p post.Post) (post.Post, error)
	// Import appends posts in order, keeping their identifiers. Existing
	// identifiers are overwritten in place.
	Import(ctx context.Context, posts []post.Post) error
	// Update applies fn to the stored post as one atomic step. If fn returns
	// an error nothing is written.
	Update(ctx context.Context, id int64, fn func(*post.Post) error) (post.Post, error)
	Delete(ctx context.Context, id int64) (post.Post, error)

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Close() error
}

// Open returns the store for the named backend: "memory" or "sqlite".
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return NewDB(path)
	}
	return nil, errors.New("unknown storage backend: " + backend)
}
