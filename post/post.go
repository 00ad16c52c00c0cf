package post

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no post matches an identifier.
	ErrNotFound = errors.New("post not found")
	// ErrInvalidArgument is returned for malformed identifiers, votes and payloads.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ContentType is the declared kind of a post.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentLink  ContentType = "link"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
)

// Valid reports whether c is one of the known content types.
func (c ContentType) Valid() bool {
	switch c {
	case ContentText, ContentLink, ContentImage, ContentVideo:
		return true
	}
	return false
}

// Vote is the current user's active vote on a post.
type Vote string

const (
	VoteUp   Vote = "up"
	VoteDown Vote = "down"
	VoteNone Vote = "none"
)

// Media is an attachment on a post.
type Media struct {
	Type ContentType `json:"type"`
	URL  string      `json:"url"`
}

// Post is a single submission in a community.
type Post struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Content      string      `json:"content,omitempty"`
	URL          string      `json:"url,omitempty"`
	ContentType  ContentType `json:"contentType"`
	Media        []Media     `json:"media,omitempty"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty"`
	Excerpt      string      `json:"excerpt,omitempty"`
	Community    string      `json:"community"`
	Author       string      `json:"author,omitempty"`
	AuthorID     string      `json:"authorId,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	Upvotes      int         `json:"upvotes"`
	Downvotes    int         `json:"downvotes"`
	UserVote     Vote        `json:"userVote"`
	Saved        bool        `json:"saved"`
	IsPinned     bool        `json:"isPinned"`
	CommentCount int         `json:"commentCount"`
}

// NetVotes returns upvotes minus downvotes.
func (p Post) NetVotes() int {
	return p.Upvotes - p.Downvotes
}

// HasMedia reports whether any attachment has the given type.
func (p Post) HasMedia(t ContentType) bool {
	for _, m := range p.Media {
		if m.Type == t {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with p.
func (p Post) Clone() Post {
	if p.Media != nil {
		p.Media = append([]Media(nil), p.Media...)
	}
	return p
}

// ApplyVote runs the vote state machine. Voting the same way twice removes
// the vote; switching sides moves the contribution in a single step.
func (p *Post) ApplyVote(v Vote) error {
	if v != VoteUp && v != VoteDown {
		return fmt.Errorf("%w: vote must be up or down, got %q", ErrInvalidArgument, v)
	}

	current := p.UserVote
	switch current {
	case VoteUp:
		p.Upvotes = decrement(p.Upvotes)
	case VoteDown:
		p.Downvotes = decrement(p.Downvotes)
	}

	if v == current {
		p.UserVote = VoteNone
		return nil
	}

	if v == VoteUp {
		p.Upvotes++
	} else {
		p.Downvotes++
	}
	p.UserVote = v
	return nil
}

// ToggleSave flips the saved flag.
func (p *Post) ToggleSave() {
	p.Saved = !p.Saved
}

func decrement(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}

// ParseID parses a post identifier given as a numeric string.
func ParseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty post id", ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed post id %q", ErrInvalidArgument, raw)
	}
	return id, nil
}

// ParseVote parses a requested vote. Only "up" and "down" can be requested.
func ParseVote(raw string) (Vote, error) {
	switch v := Vote(strings.ToLower(strings.TrimSpace(raw))); v {
	case VoteUp, VoteDown:
		return v, nil
	}
	return "", fmt.Errorf("%w: vote must be up or down, got %q", ErrInvalidArgument, raw)
}

// NormalizeVote maps stored vote values onto the three states. Empty and
// unknown values become VoteNone.
func NormalizeVote(raw string) Vote {
	switch v := Vote(strings.ToLower(raw)); v {
	case VoteUp, VoteDown:
		return v
	}
	return VoteNone
}

// Draft is the payload for a new submission.
type Draft struct {
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	URL         string      `json:"url"`
	ContentType ContentType `json:"contentType"`
	Community   string      `json:"community"`
	Author      string      `json:"author"`
	AuthorID    string      `json:"authorId"`
}

// Validate checks the draft and returns an error wrapping ErrInvalidArgument.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(d.Community) == "" {
		return fmt.Errorf("%w: community is required", ErrInvalidArgument)
	}
	if !d.ContentType.Valid() {
		return fmt.Errorf("%w: unknown content type %q", ErrInvalidArgument, d.ContentType)
	}

	if d.ContentType == ContentText {
		if strings.TrimSpace(d.Content) == "" {
			return fmt.Errorf("%w: content is required for text posts", ErrInvalidArgument)
		}
		return nil
	}

	if !isWebURL(d.URL) {
		return fmt.Errorf("%w: a valid URL is required for %s posts", ErrInvalidArgument, d.ContentType)
	}
	return nil
}

// New builds the initial record for a validated draft. The caller assigns
// the identifier.
func New(d Draft, now time.Time) Post {
	p := Post{
		Title:       strings.TrimSpace(d.Title),
		Content:     strings.TrimSpace(d.Content),
		ContentType: d.ContentType,
		Community:   strings.TrimSpace(d.Community),
		Author:      d.Author,
		AuthorID:    d.AuthorID,
		CreatedAt:   now,
		Upvotes:     1,
		Downvotes:   0,
		UserVote:    VoteUp,
	}

	link := strings.TrimSpace(d.URL)
	switch d.ContentType {
	case ContentLink:
		p.URL = link
	case ContentImage, ContentVideo:
		p.Media = []Media{{Type: d.ContentType, URL: link}}
		p.ThumbnailURL = link
	}
	return p
}

func isWebURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
