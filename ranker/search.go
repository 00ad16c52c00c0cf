package ranker

import (
	"cmp"
	"slices"
	"strings"

	"threadhub/post"
)

// Search sort orders.
const (
	SearchRelevance = "relevance"
	SearchNew       = "new"
	SearchTop       = "top"
)

// Search returns posts whose title, content, community or author contain
// query (case-insensitive). Relevance puts title matches first; new and
// top order by creation time and net votes. An empty query matches nothing.
func Search(posts []post.Post, query, sortBy string) []post.Post {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []post.Post{}
	}

	matches := make([]post.Post, 0)
	for _, p := range posts {
		if containsFold(p.Title, q) || containsFold(p.Content, q) ||
			containsFold(p.Community, q) || containsFold(p.Author, q) {
			matches = append(matches, p)
		}
	}

	switch sortBy {
	case SearchNew:
		slices.SortStableFunc(matches, func(a, b post.Post) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case SearchTop:
		slices.SortStableFunc(matches, func(a, b post.Post) int {
			return cmp.Compare(b.NetVotes(), a.NetVotes())
		})
	default:
		slices.SortStableFunc(matches, func(a, b post.Post) int {
			return cmp.Compare(relevance(b, q), relevance(a, q))
		})
	}
	return matches
}

func relevance(p post.Post, q string) int {
	if containsFold(p.Title, q) {
		return 2
	}
	return 1
}

// lowerQuery must already be lower case.
func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}
