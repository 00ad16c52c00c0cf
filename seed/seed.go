package seed

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"threadhub/community"
	"threadhub/post"
	"threadhub/topic"
)

//go:embed fixtures/*.json
var fixtures embed.FS

const (
	postsFile       = "posts.json"
	communitiesFile = "communities.json"
	topicsFile      = "topics.json"
)

// Data is the initial content of a fresh process.
type Data struct {
	Posts       []post.Post
	Communities []community.Community
	Topics      []topic.Topic
}

// Load reads posts, communities and topics from dir. An empty dir loads the
// fixtures compiled into the binary. Missing communities or topics files
// yield empty slices; a missing posts file is an error.
func Load(dir string) (*Data, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(fixtures, "fixtures")
		if err != nil {
			return nil, fmt.Errorf("open embedded fixtures: %w", err)
		}
		fsys = sub
	} else {
		fsys = os.DirFS(filepath.Clean(dir))
	}

	raw, err := fs.ReadFile(fsys, postsFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", postsFile, err)
	}
	posts, err := ParsePosts(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", postsFile, err)
	}

	data := &Data{
		Posts:       posts,
		Communities: []community.Community{},
		Topics:      []topic.Topic{},
	}

	if raw, err := readOptional(fsys, communitiesFile); err != nil {
		return nil, err
	} else if raw != nil {
		if err := json.Unmarshal(raw, &data.Communities); err != nil {
			return nil, fmt.Errorf("parse %s: %w", communitiesFile, err)
		}
	}

	if raw, err := readOptional(fsys, topicsFile); err != nil {
		return nil, err
	} else if raw != nil {
		if err := json.Unmarshal(raw, &data.Topics); err != nil {
			return nil, fmt.Errorf("parse %s: %w", topicsFile, err)
		}
	}

	return data, nil
}

func readOptional(fsys fs.FS, name string) ([]byte, error) {
	raw, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return raw, nil
}

// flexID accepts an identifier written as a JSON number or a numeric string.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed id %s", post.ErrInvalidArgument, b)
	}
	*f = flexID(n)
	return nil
}

// rawPost is the fixture shape. Records may spell the identifier "Id" or
// "id" and name the community through "community" or "communityId".
type rawPost struct {
	UpperID      flexID       `json:"Id"`
	LowerID      flexID       `json:"id"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	URL          string       `json:"url"`
	ContentType  string       `json:"contentType"`
	MediaURL     string       `json:"mediaUrl"`
	Media        []post.Media `json:"media"`
	ThumbnailURL string       `json:"thumbnailUrl"`
	Community    string       `json:"community"`
	CommunityID  string       `json:"communityId"`
	Author       string       `json:"author"`
	AuthorID     string       `json:"authorId"`
	CreatedAt    time.Time    `json:"createdAt"`
	Upvotes      int          `json:"upvotes"`
	Downvotes    int          `json:"downvotes"`
	UserVote     *string      `json:"userVote"`
	Saved        bool         `json:"saved"`
	IsPinned     bool         `json:"isPinned"`
	CommentCount int          `json:"commentCount"`
}

// ParsePosts decodes a JSON array of fixture posts into canonical records.
func ParsePosts(raw []byte) ([]post.Post, error) {
	var records []rawPost
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}

	posts := make([]post.Post, 0, len(records))
	seen := make(map[int64]bool, len(records))
	for i, r := range records {
		p, err := r.normalize()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("record %d: %w: duplicate id %d", i, post.ErrInvalidArgument, p.ID)
		}
		seen[p.ID] = true
		posts = append(posts, p)
	}
	return posts, nil
}

func (r rawPost) normalize() (post.Post, error) {
	id, err := r.id()
	if err != nil {
		return post.Post{}, err
	}

	communityName := strings.TrimSpace(r.Community)
	if communityName == "" {
		communityName = strings.TrimPrefix(strings.TrimSpace(r.CommunityID), "c_")
	}
	if communityName == "" {
		return post.Post{}, fmt.Errorf("%w: post %d has no community", post.ErrInvalidArgument, id)
	}

	p := post.Post{
		ID:           id,
		Title:        r.Title,
		Content:      r.Content,
		URL:          r.URL,
		ContentType:  post.ContentType(strings.ToLower(r.ContentType)),
		Media:        r.Media,
		ThumbnailURL: r.ThumbnailURL,
		Community:    communityName,
		Author:       r.Author,
		AuthorID:     r.AuthorID,
		CreatedAt:    r.CreatedAt.UTC(),
		Upvotes:      max(0, r.Upvotes),
		Downvotes:    max(0, r.Downvotes),
		UserVote:     post.VoteNone,
		Saved:        r.Saved,
		IsPinned:     r.IsPinned,
		CommentCount: max(0, r.CommentCount),
	}
	if r.UserVote != nil {
		p.UserVote = post.NormalizeVote(*r.UserVote)
	}

	if !p.ContentType.Valid() {
		p.ContentType = inferContentType(r)
	}
	if r.MediaURL != "" && len(p.Media) == 0 {
		mediaType := p.ContentType
		if mediaType != post.ContentVideo {
			mediaType = post.ContentImage
		}
		p.Media = []post.Media{{Type: mediaType, URL: r.MediaURL}}
		if p.ThumbnailURL == "" {
			p.ThumbnailURL = r.MediaURL
		}
	}
	return p, nil
}

// id resolves the two spellings. Both may be present only if they agree.
func (r rawPost) id() (int64, error) {
	upper, lower := int64(r.UpperID), int64(r.LowerID)
	switch {
	case upper != 0 && lower != 0 && upper != lower:
		return 0, fmt.Errorf("%w: conflicting ids %d and %d", post.ErrInvalidArgument, upper, lower)
	case upper > 0:
		return upper, nil
	case lower > 0:
		return lower, nil
	}
	return 0, fmt.Errorf("%w: record has no positive id", post.ErrInvalidArgument)
}

func inferContentType(r rawPost) post.ContentType {
	switch {
	case r.MediaURL != "" || len(r.Media) > 0:
		if len(r.Media) > 0 && r.Media[0].Type == post.ContentVideo {
			return post.ContentVideo
		}
		return post.ContentImage
	case r.URL != "":
		return post.ContentLink
	}
	return post.ContentText
}

// Rebase shifts every timestamp by the same amount so the newest post was
// created at now. Relative ages are preserved.
func Rebase(posts []post.Post, now time.Time) {
	var newest time.Time
	for _, p := range posts {
		if p.CreatedAt.After(newest) {
			newest = p.CreatedAt
		}
	}
	if newest.IsZero() {
		return
	}

	shift := now.Sub(newest)
	for i := range posts {
		posts[i].CreatedAt = posts[i].CreatedAt.Add(shift)
	}
}
