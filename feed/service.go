package feed

import (
	"context"
	"log/slog"
	"time"

	"threadhub/post"
	"threadhub/ranker"
	"threadhub/storage"
)

// LinkPreview is the metadata attached to link posts on submission.
type LinkPreview struct {
	Excerpt string
	Image   string
}

// Previewer fetches metadata for a submitted link.
type Previewer interface {
	Preview(ctx context.Context, url string) (LinkPreview, error)
}

// Observer receives the outcome of every operation.
type Observer interface {
	Observe(op string, started time.Time, err error)
	ObserveVote(v post.Vote)
}

// Service is the public operation surface over a post store.
type Service struct {
	store     storage.Store
	latency   time.Duration
	now       func() time.Time
	previewer Previewer
	observer  Observer
	pageSize  int
}

// Option configures a Service.
type Option func(*Service)

// WithLatency delays every operation by d before it touches the store.
func WithLatency(d time.Duration) Option {
	return func(s *Service) {
		s.latency = d
	}
}

// WithClock sets the time source used for ranking and new posts.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithPreviewer enables link previews for link submissions.
func WithPreviewer(p Previewer) Option {
	return func(s *Service) {
		s.previewer = p
	}
}

// WithObserver sets the operation observer.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// WithPageSize sets the limit used when a query leaves it at zero.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// NewService creates a Service backed by store.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		now:      time.Now,
		pageSize: ranker.DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of the ranked listing.
func (s *Service) List(ctx context.Context, q ranker.Query) (*ranker.Page, error) {
	started := time.Now()
	page, err := s.list(ctx, q)
	s.observe("list", started, err)
	return page, err
}

func (s *Service) list(ctx context.Context, q ranker.Query) (*ranker.Page, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	if q.Limit == 0 {
		q.Limit = s.pageSize
	}

	posts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return ranker.Rank(posts, q, s.now())
}

// Get returns one post by its identifier.
func (s *Service) Get(ctx context.Context, rawID string) (post.Post, error) {
	started := time.Now()
	p, err := s.get(ctx, rawID)
	s.observe("get", started, err)
	return p, err
}

func (s *Service) get(ctx context.Context, rawID string) (post.Post, error) {
	id, err := post.ParseID(rawID)
	if err != nil {
		return post.Post{}, err
	}
	ctx, err = s.begin(ctx)
	if err != nil {
		return post.Post{}, err
	}
	return s.store.Get(ctx, id)
}

// Create validates a draft and stores the new post.
func (s *Service) Create(ctx context.Context, d post.Draft) (post.Post, error) {
	started := time.Now()
	p, err := s.create(ctx, d)
	s.observe("create", started, err)
	return p, err
}

func (s *Service) create(ctx context.Context, d post.Draft) (post.Post, error) {
	if err := d.Validate(); err != nil {
		return post.Post{}, err
	}
	ctx, err := s.begin(ctx)
	if err != nil {
		return post.Post{}, err
	}

	p := post.New(d, s.now())
	if p.ContentType == post.ContentLink && s.previewer != nil {
		preview, err := s.previewer.Preview(ctx, p.URL)
		if err != nil {
			slog.Warn("link preview failed", "url", p.URL, "error", err)
		} else {
			p.Excerpt = preview.Excerpt
			if p.ThumbnailURL == "" {
				p.ThumbnailURL = preview.Image
			}
		}
	}

	created, err := s.store.Create(ctx, p)
	if err != nil {
		return post.Post{}, err
	}
	slog.Debug("post created", "post_id", created.ID, "community", created.Community, "content_type", created.ContentType)
	return created, nil
}

// Vote applies the current user's vote and returns the updated post.
func (s *Service) Vote(ctx context.Context, rawID, rawVote string) (post.Post, error) {
	started := time.Now()
	p, err := s.vote(ctx, rawID, rawVote)
	s.observe("vote", started, err)
	return p, err
}

func (s *Service) vote(ctx context.Context, rawID, rawVote string) (post.Post, error) {
	id, err := post.ParseID(rawID)
	if err != nil {
		return post.Post{}, err
	}
	v, err := post.ParseVote(rawVote)
	if err != nil {
		return post.Post{}, err
	}
	ctx, err = s.begin(ctx)
	if err != nil {
		return post.Post{}, err
	}

	updated, err := s.store.Update(ctx, id, func(p *post.Post) error {
		return p.ApplyVote(v)
	})
	if err != nil {
		return post.Post{}, err
	}

	if s.observer != nil {
		s.observer.ObserveVote(v)
	}
	slog.Debug("post voted",
		"post_id", id,
		"vote", v,
		"user_vote", updated.UserVote,
		"upvotes", updated.Upvotes,
		"downvotes", updated.Downvotes,
	)
	return updated, nil
}

// ToggleSave flips the saved flag and returns the updated post.
func (s *Service) ToggleSave(ctx context.Context, rawID string) (post.Post, error) {
	started := time.Now()
	p, err := s.toggleSave(ctx, rawID)
	s.observe("save", started, err)
	return p, err
}

func (s *Service) toggleSave(ctx context.Context, rawID string) (post.Post, error) {
	id, err := post.ParseID(rawID)
	if err != nil {
		return post.Post{}, err
	}
	ctx, err = s.begin(ctx)
	if err != nil {
		return post.Post{}, err
	}

	updated, err := s.store.Update(ctx, id, func(p *post.Post) error {
		p.ToggleSave()
		return nil
	})
	if err != nil {
		return post.Post{}, err
	}
	slog.Debug("post save toggled", "post_id", id, "saved", updated.Saved)
	return updated, nil
}

// Delete removes a post and returns its final state.
func (s *Service) Delete(ctx context.Context, rawID string) (post.Post, error) {
	started := time.Now()
	p, err := s.delete(ctx, rawID)
	s.observe("delete", started, err)
	return p, err
}

func (s *Service) delete(ctx context.Context, rawID string) (post.Post, error) {
	id, err := post.ParseID(rawID)
	if err != nil {
		return post.Post{}, err
	}
	ctx, err = s.begin(ctx)
	if err != nil {
		return post.Post{}, err
	}

	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return post.Post{}, err
	}
	slog.Debug("post deleted", "post_id", id)
	return removed, nil
}

// Search returns posts matching query ordered by relevance, new or top.
func (s *Service) Search(ctx context.Context, query, sortBy string) ([]post.Post, error) {
	started := time.Now()
	posts, err := s.search(ctx, query, sortBy)
	s.observe("search", started, err)
	return posts, err
}

func (s *Service) search(ctx context.Context, query, sortBy string) ([]post.Post, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return ranker.Search(posts, query, sortBy), nil
}

// Saved returns the saved posts in encounter order.
func (s *Service) Saved(ctx context.Context) ([]post.Post, error) {
	started := time.Now()
	posts, err := s.saved(ctx)
	s.observe("saved", started, err)
	return posts, err
}

func (s *Service) saved(ctx context.Context) ([]post.Post, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]post.Post, 0)
	for _, p := range posts {
		if p.Saved {
			out = append(out, p)
		}
	}
	return out, nil
}

// All returns every post in encounter order.
func (s *Service) All(ctx context.Context) ([]post.Post, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx)
}

// begin waits out the simulated latency and returns a context that is no
// longer cancellable. Once begin succeeds the operation runs to completion.
func (s *Service) begin(ctx context.Context) (context.Context, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return context.WithoutCancel(ctx), nil
}

func (s *Service) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.latency <= 0 {
		return nil
	}

	timer := time.NewTimer(s.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) observe(op string, started time.Time, err error) {
	if s.observer != nil {
		s.observer.Observe(op, started, err)
	}
}
