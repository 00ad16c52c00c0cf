package ranker

import (
	"fmt"
	"time"

	"threadhub/post"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Query holds listing parameters. Zero page and limit take the defaults.
type Query struct {
	Community string
	PostType  string
	SortBy    string
	Page      int
	Limit     int
}

// Page is one slice of a ranked listing.
type Page struct {
	Posts   []post.Post `json:"posts"`
	HasMore bool        `json:"hasMore"`
	Total   int         `json:"total"`
}

type normalized struct {
	community string
	postType  PostType
	sort      SortKey
	page      int
	limit     int
}

func (q Query) normalize() (normalized, error) {
	postType, err := ParsePostType(q.PostType)
	if err != nil {
		return normalized{}, err
	}
	if q.Page < 0 {
		return normalized{}, fmt.Errorf("%w: page must be positive, got %d", post.ErrInvalidArgument, q.Page)
	}
	if q.Limit < 0 {
		return normalized{}, fmt.Errorf("%w: limit must be positive, got %d", post.ErrInvalidArgument, q.Limit)
	}

	n := normalized{
		community: q.Community,
		postType:  postType,
		sort:      ResolveSort(q.SortBy),
		page:      q.Page,
		limit:     q.Limit,
	}
	if n.page == 0 {
		n.page = DefaultPage
	}
	if n.limit == 0 {
		n.limit = DefaultLimit
	}
	return n, nil
}

// Rank runs the listing pipeline: filter, split pinned posts off, rank
// the rest, put pinned posts first and cut the requested page.
func Rank(posts []post.Post, q Query, now time.Time) (*Page, error) {
	n, err := q.normalize()
	if err != nil {
		return nil, err
	}

	filtered := Filter(posts, n.community, n.postType)
	pinned, unpinned := Partition(filtered)
	ranked := Sort(unpinned, n.sort, now)

	merged := make([]post.Post, 0, len(pinned)+len(ranked))
	merged = append(merged, pinned...)
	merged = append(merged, ranked...)

	items, hasMore := Paginate(merged, n.page, n.limit)
	return &Page{
		Posts:   items,
		HasMore: hasMore,
		Total:   len(merged),
	}, nil
}

// Paginate returns items [(page-1)*limit, page*limit) and whether more
// remain. Pages past the end are empty. Page and limit must be positive.
func Paginate(posts []post.Post, page, limit int) ([]post.Post, bool) {
	if page < 1 || limit < 1 {
		return []post.Post{}, false
	}

	total := len(posts)
	if page-1 > total/limit {
		return []post.Post{}, false
	}

	start := (page - 1) * limit
	if start >= total {
		return []post.Post{}, false
	}
	end := min(start+limit, total)

	out := make([]post.Post, end-start)
	copy(out, posts[start:end])
	return out, end < total
}
