package topic

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"threadhub/post"
)

// DefaultTrendingLimit is used by Trending when limit is not positive.
const DefaultTrendingLimit = 10

// Topic is a tracked keyword with the number of posts mentioning it.
type Topic struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	PostCount int    `json:"postCount"`
	Category  string `json:"category"`
}

// Board holds the tracked topics.
type Board struct {
	mu     sync.RWMutex
	topics []Topic
}

// NewBoard creates a board with the given topics.
func NewBoard(topics []Topic) *Board {
	return &Board{topics: slices.Clone(topics)}
}

// All returns every topic in insertion order.
func (b *Board) All() []Topic {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.topics)
}

// Trending returns up to limit topics with the highest post count.
func (b *Board) Trending(limit int) []Topic {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}

	all := b.All()
	slices.SortStableFunc(all, func(x, y Topic) int {
		return cmp.Compare(y.PostCount, x.PostCount)
	})
	return all[:min(limit, len(all))]
}

// Search returns topics whose name contains query, ignoring case.
func (b *Board) Search(query string) []Topic {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]Topic, 0)
	for _, t := range b.All() {
		if strings.Contains(strings.ToLower(t.Name), q) {
			out = append(out, t)
		}
	}
	return out
}

// Refresh recounts every topic against posts. A post counts once per topic
// when its title or content mentions the topic name.
func (b *Board) Refresh(posts []post.Post) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.topics {
		name := strings.ToLower(b.topics[i].Name)
		count := 0
		for _, p := range posts {
			if strings.Contains(strings.ToLower(p.Title), name) ||
				strings.Contains(strings.ToLower(p.Content), name) {
				count++
			}
		}
		b.topics[i].PostCount = count
	}
}
