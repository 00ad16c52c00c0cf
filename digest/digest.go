package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"threadhub/post"
	"threadhub/ranker"
)

const (
	defaultRecencyWindow = 7 * 24 * time.Hour
	defaultPostCount     = 5

	// SettingChatID holds the chat that receives the digest.
	SettingChatID = "chat_id"
	// SettingSent holds the ids sent recently, keyed by id with unix seconds.
	SettingSent = "digest_sent"
)

// ErrNoChat is returned when no chat has been configured for the digest.
var ErrNoChat = errors.New("chat_id not set")

// Feed lists ranked posts.
type Feed interface {
	List(ctx context.Context, q ranker.Query) (*ranker.Page, error)
}

// Storage provides the digest's persistent settings.
type Storage interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// PostSender delivers one post to a chat.
type PostSender interface {
	SendPost(ctx context.Context, chatID int64, p *post.Post) (int64, error)
}

// Runner sends the best posts of the week to a chat.
type Runner struct {
	feed          Feed
	storage       Storage
	sender        PostSender
	chatID        int64
	postCount     int
	recencyWindow time.Duration
	now           func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithChatID sets the Telegram chat ID. When unset the chat_id setting is used.
func WithChatID(chatID int64) Option {
	return func(r *Runner) {
		r.chatID = chatID
	}
}

// WithPostCount sets the number of posts per digest.
func WithPostCount(count int) Option {
	return func(r *Runner) {
		r.postCount = count
	}
}

// WithRecencyWindow sets how long a sent post is skipped by later digests.
func WithRecencyWindow(d time.Duration) Option {
	return func(r *Runner) {
		r.recencyWindow = d
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a new digest runner.
func NewRunner(feed Feed, storage Storage, sender PostSender, opts ...Option) *Runner {
	r := &Runner{
		feed:          feed,
		storage:       storage,
		sender:        sender,
		postCount:     defaultPostCount,
		recencyWindow: defaultRecencyWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run sends the digest and returns how many posts were delivered.
func (r *Runner) Run(ctx context.Context) (int, error) {
	chatID, err := r.resolveChatID(ctx)
	if err != nil {
		return 0, err
	}

	slog.Info("starting digest run", "chat_id", chatID, "post_count", r.postCount)

	now := r.now()
	sent := r.loadSent(ctx, now)

	candidates, err := r.collect(ctx, sent)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		slog.Info("no posts to send")
		return 0, nil
	}

	delivered := 0
	for i := range candidates {
		p := &candidates[i]
		msgID, err := r.sender.SendPost(ctx, chatID, p)
		if err != nil {
			slog.Warn("failed to send post", "post_id", p.ID, "error", err)
			continue
		}
		sent[p.ID] = now.Unix()
		delivered++
		slog.Info("sent post", "post_id", p.ID, "title", p.Title, "message_id", msgID, "net_votes", p.NetVotes())
	}

	if err := r.saveSent(ctx, sent); err != nil {
		slog.Warn("failed to record sent posts", "error", err)
	}

	slog.Info("digest run complete", "sent", delivered)
	return delivered, nil
}

// collect walks the topWeek listing until it has enough unpinned posts that
// were not sent recently.
func (r *Runner) collect(ctx context.Context, sent map[int64]int64) ([]post.Post, error) {
	out := make([]post.Post, 0, r.postCount)
	limit := max(r.postCount*2, ranker.DefaultLimit)

	for page := 1; len(out) < r.postCount; page++ {
		res, err := r.feed.List(ctx, ranker.Query{SortBy: string(ranker.SortTopWeek), Page: page, Limit: limit})
		if err != nil {
			return nil, fmt.Errorf("list top posts: %w", err)
		}

		for _, p := range res.Posts {
			if p.IsPinned {
				continue
			}
			if _, ok := sent[p.ID]; ok {
				continue
			}
			out = append(out, p)
			if len(out) == r.postCount {
				break
			}
		}

		if !res.HasMore {
			break
		}
	}
	return out, nil
}

func (r *Runner) resolveChatID(ctx context.Context) (int64, error) {
	if r.chatID != 0 {
		return r.chatID, nil
	}

	raw, err := r.storage.GetSetting(ctx, SettingChatID)
	if err != nil || raw == "" {
		return 0, ErrNoChat
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || chatID == 0 {
		return 0, fmt.Errorf("invalid chat_id setting %q: %w", raw, ErrNoChat)
	}
	return chatID, nil
}

// loadSent returns the posts sent within the recency window.
func (r *Runner) loadSent(ctx context.Context, now time.Time) map[int64]int64 {
	sent := make(map[int64]int64)

	raw, err := r.storage.GetSetting(ctx, SettingSent)
	if err != nil || raw == "" {
		return sent
	}

	var stored map[string]int64
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		slog.Warn("ignoring malformed sent posts setting", "error", err)
		return sent
	}

	cutoff := now.Add(-r.recencyWindow).Unix()
	for key, at := range stored {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || at < cutoff {
			continue
		}
		sent[id] = at
	}
	return sent
}

func (r *Runner) saveSent(ctx context.Context, sent map[int64]int64) error {
	stored := make(map[string]int64, len(sent))
	for id, at := range sent {
		stored[strconv.FormatInt(id, 10)] = at
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return r.storage.SetSetting(ctx, SettingSent, string(b))
}
