package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"threadhub/post"
)

// Memory keeps posts in a map keyed by id with a separate slice for
// encounter order.
type Memory struct {
	mu       sync.RWMutex
	posts    map[int64]*post.Post
	order    []int64
	maxID    int64
	settings map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		posts:    make(map[int64]*post.Post),
		settings: make(map[string]string),
	}
}

// List returns a snapshot of all posts in encounter order.
func (m *Memory) List(ctx context.Context) ([]post.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]post.Post, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.posts[id].Clone())
	}
	return out, nil
}

// Get returns a copy of one post.
func (m *Memory) Get(ctx context.Context, id int64) (post.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return post.Post{}, notFound(id)
	}
	return p.Clone(), nil
}

// Create stores p under the next identifier at the front of the order.
func (m *Memory) Create(ctx context.Context, p post.Post) (post.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maxID++
	p = p.Clone()
	p.ID = m.maxID
	m.posts[p.ID] = &p
	m.order = slices.Insert(m.order, 0, p.ID)
	return p.Clone(), nil
}

// Import appends posts keeping their identifiers.
func (m *Memory) Import(ctx context.Context, posts []post.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range posts {
		if p.ID <= 0 {
			return fmt.Errorf("%w: import requires a positive id, got %d", post.ErrInvalidArgument, p.ID)
		}
		p := p.Clone()
		if _, exists := m.posts[p.ID]; !exists {
			m.order = append(m.order, p.ID)
		}
		m.posts[p.ID] = &p
		m.maxID = max(m.maxID, p.ID)
	}
	return nil
}

// Update runs fn on a working copy and stores it only if fn succeeds.
func (m *Memory) Update(ctx context.Context, id int64, fn func(*post.Post) error) (post.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.posts[id]
	if !ok {
		return post.Post{}, notFound(id)
	}

	working := stored.Clone()
	if err := fn(&working); err != nil {
		return post.Post{}, err
	}
	working.ID = id
	m.posts[id] = &working
	return working.Clone(), nil
}

// Delete removes a post and returns it.
func (m *Memory) Delete(ctx context.Context, id int64) (post.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return post.Post{}, notFound(id)
	}
	delete(m.posts, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return *p, nil
}

// GetSetting retrieves a setting value by key.
func (m *Memory) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.settings[key]
	if !ok {
		return "", ErrSettingNotFound
	}
	return v, nil
}

// SetSetting stores or updates a setting.
func (m *Memory) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings[key] = value
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

func notFound(id int64) error {
	return fmt.Errorf("%w: id %d", post.ErrNotFound, id)
}
