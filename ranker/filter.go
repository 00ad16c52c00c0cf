package ranker

import (
	"fmt"
	"strings"

	"threadhub/post"
)

// PostType is the content-type filter applied to a listing.
type PostType string

const (
	TypeAll        PostType = "all"
	TypeImage      PostType = "image"
	TypeVideo      PostType = "video"
	TypeLink       PostType = "link"
	TypeDiscussion PostType = "discussion"
)

// ParsePostType accepts the listing filter values. Empty means all.
func ParsePostType(raw string) (PostType, error) {
	switch t := PostType(strings.ToLower(strings.TrimSpace(raw))); t {
	case "", TypeAll:
		return TypeAll, nil
	case TypeImage, TypeVideo, TypeLink, TypeDiscussion:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown post type %q", post.ErrInvalidArgument, raw)
}

// Matches reports whether p satisfies the content-type predicate.
func (t PostType) Matches(p post.Post) bool {
	switch t {
	case TypeImage:
		return p.ContentType == post.ContentImage || p.HasMedia(post.ContentImage)
	case TypeVideo:
		return p.ContentType == post.ContentVideo || p.HasMedia(post.ContentVideo)
	case TypeLink:
		return p.URL != "" || p.ContentType == post.ContentLink
	case TypeDiscussion:
		return p.URL == "" && len(p.Media) == 0
	default:
		return true
	}
}

// Filter keeps posts in community (case-insensitive, empty matches all)
// that satisfy the content-type predicate.
func Filter(posts []post.Post, community string, postType PostType) []post.Post {
	out := make([]post.Post, 0, len(posts))
	for _, p := range posts {
		if community != "" && !strings.EqualFold(p.Community, community) {
			continue
		}
		if !postType.Matches(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Partition splits posts into pinned and unpinned, keeping relative order.
func Partition(posts []post.Post) (pinned, unpinned []post.Post) {
	for _, p := range posts {
		if p.IsPinned {
			pinned = append(pinned, p)
		} else {
			unpinned = append(unpinned, p)
		}
	}
	return pinned, unpinned
}
