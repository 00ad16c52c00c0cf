package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"threadhub/community"
	"threadhub/digest"
	"threadhub/feed"
	"threadhub/post"
	"threadhub/storage"
	"threadhub/topic"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Mock implementations for testing

type mockMessageSender struct {
	sentMessages []sentMessage
	edits        []editedMessage
}

type sentMessage struct {
	chatID int64
	msg    Message
}

type editedMessage struct {
	chatID    int64
	messageID int64
	msg       Message
}

func (m *mockMessageSender) SendMessage(ctx context.Context, chatID int64, msg Message) (int64, error) {
	m.sentMessages = append(m.sentMessages, sentMessage{chatID, msg})
	return int64(len(m.sentMessages)), nil
}

func (m *mockMessageSender) EditMessage(ctx context.Context, chatID, messageID int64, msg Message) error {
	m.edits = append(m.edits, editedMessage{chatID, messageID, msg})
	return nil
}

func (m *mockMessageSender) last(t *testing.T) Message {
	t.Helper()
	if len(m.sentMessages) == 0 {
		t.Fatal("no message sent")
	}
	return m.sentMessages[len(m.sentMessages)-1].msg
}

type mockSettingsStore struct {
	settings map[string]string
}

func newMockSettingsStore() *mockSettingsStore {
	return &mockSettingsStore{settings: make(map[string]string)}
}

func (m *mockSettingsStore) GetSetting(ctx context.Context, key string) (string, error) {
	if v, ok := m.settings[key]; ok {
		return v, nil
	}
	return "", storage.ErrSettingNotFound
}

func (m *mockSettingsStore) SetSetting(ctx context.Context, key, value string) error {
	m.settings[key] = value
	return nil
}

type mockScheduleUpdater struct {
	scheduledTime string
	err           error
}

func (m *mockScheduleUpdater) Reschedule(timeStr string) error {
	if m.err != nil {
		return m.err
	}
	m.scheduledTime = timeStr
	return nil
}

type mockDigestTrigger struct {
	chats []int64
	sent  int
	err   error
}

func (m *mockDigestTrigger) TriggerDigest(ctx context.Context, chatID int64) (int, error) {
	m.chats = append(m.chats, chatID)
	return m.sent, m.err
}

type fixture struct {
	handler     *CommandHandler
	sender      *mockMessageSender
	settings    *mockSettingsStore
	store       storage.Store
	communities *community.Directory
}

func newFixture(t *testing.T, feedOpts []feed.Option, opts ...Option) *fixture {
	t.Helper()

	store := storage.NewMemory()
	posts := []post.Post{
		{ID: 1, Title: "Go 1.22 released", ContentType: post.ContentLink, URL: "https://go.dev/blog", Community: "golang", Upvotes: 40, Downvotes: 2, CreatedAt: fixedNow.Add(-5 * time.Hour), UserVote: post.VoteNone},
		{ID: 2, Title: "Rules", ContentType: post.ContentText, Content: "Be nice", Community: "golang", Upvotes: 3, IsPinned: true, CreatedAt: fixedNow.Add(-900 * time.Hour), UserVote: post.VoteNone},
		{ID: 3, Title: "My cat", ContentType: post.ContentImage, Media: []post.Media{{Type: post.ContentImage, URL: "https://img.example.com/cat.jpg"}}, Community: "cats", Upvotes: 12, CreatedAt: fixedNow.Add(-1 * time.Hour), UserVote: post.VoteUp, Saved: true},
		{ID: 4, Title: "Generics question", ContentType: post.ContentText, Content: "How do constraints work?", Community: "golang", Author: "bob", AuthorID: "tg_42", Upvotes: 5, Downvotes: 5, CommentCount: 30, CreatedAt: fixedNow.Add(-10 * time.Hour), UserVote: post.VoteNone},
	}
	if err := store.Import(context.Background(), posts); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	feedOpts = append([]feed.Option{feed.WithClock(func() time.Time { return fixedNow })}, feedOpts...)
	svc := feed.NewService(store, feedOpts...)

	dir := community.NewDirectory([]community.Community{
		{ID: 1, Name: "golang", DisplayName: "Go", Description: "The Go language", MemberCount: 1200, CreatedAt: fixedNow.Add(-365 * 24 * time.Hour)},
		{ID: 2, Name: "cats", DisplayName: "Cats", Description: "Cats being cats", MemberCount: 5400, CreatedAt: fixedNow.Add(-30 * 24 * time.Hour)},
	})
	board := topic.NewBoard([]topic.Topic{
		{ID: 1, Name: "golang", PostCount: 12, Category: "tech"},
		{ID: 2, Name: "cats", PostCount: 3, Category: "pets"},
	})

	sender := &mockMessageSender{}
	settings := newMockSettingsStore()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)

	return &fixture{
		handler:     NewCommandHandler(sender, svc, dir, board, settings, opts...),
		sender:      sender,
		settings:    settings,
		store:       store,
		communities: dir,
	}
}

func (f *fixture) send(t *testing.T, text string) {
	t.Helper()
	if err := f.handler.Handle(context.Background(), Incoming{ChatID: 12345, UserID: 7, Username: "alice", Text: text}); err != nil {
		t.Fatalf("Handle(%q) failed: %v", text, err)
	}
}

func (f *fixture) post(t *testing.T, id int64) post.Post {
	t.Helper()
	p, err := f.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%d) failed: %v", id, err)
	}
	return p
}

// Tests

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text     string
		wantCmd  string
		wantArgs string
		wantOK   bool
	}{
		{"/hot", "hot", "", true},
		{"/hot@ThreadHubBot golang 2", "hot", "golang 2", true},
		{"  /POST 3 ", "post", "3", true},
		{"/post_12", "post", "12", true},
		{"/up_7 extra", "up", "7 extra", true},
		{"/r golang new image", "r", "golang new image", true},
		{"/r_golang", "r_golang", "", true},
		{"hello", "", "", false},
		{"/", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd, args, ok := ParseCommand(tt.text)
			if ok != tt.wantOK || cmd != tt.wantCmd || args != tt.wantArgs {
				t.Errorf("ParseCommand(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.text, cmd, args, ok, tt.wantCmd, tt.wantArgs, tt.wantOK)
			}
		})
	}
}

func TestHandleStartCommand(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/start")

	if got := f.settings.settings[digest.SettingChatID]; got != "12345" {
		t.Errorf("chat_id = %q, want '12345'", got)
	}
	if len(f.sender.sentMessages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(f.sender.sentMessages))
	}
	if f.sender.sentMessages[0].chatID != 12345 {
		t.Errorf("message sent to wrong chat: %d", f.sender.sentMessages[0].chatID)
	}
	if !strings.Contains(f.sender.last(t).Text, "/hot") {
		t.Error("welcome message should list commands")
	}
}

func TestIgnoresPlainText(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "just chatting")

	if len(f.sender.sentMessages) != 0 {
		t.Errorf("expected no reply, got %d messages", len(f.sender.sentMessages))
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/frobnicate")

	if !strings.Contains(f.sender.last(t).Text, "/help") {
		t.Errorf("unknown command reply = %q", f.sender.last(t).Text)
	}
}

func TestHandleListing(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/top golang")

	msg := f.sender.last(t)
	if !msg.HTML {
		t.Error("listing should be HTML")
	}
	if !strings.Contains(msg.Text, "r/golang · Top") {
		t.Errorf("header missing, got: %s", msg.Text)
	}

	rules := strings.Index(msg.Text, "1. 📌 Rules")
	release := strings.Index(msg.Text, "2. Go 1.22 released")
	generics := strings.Index(msg.Text, "3. Generics question")
	if rules < 0 || release < 0 || generics < 0 {
		t.Fatalf("unexpected listing: %s", msg.Text)
	}
	if strings.Contains(msg.Text, "My cat") {
		t.Error("listing should be filtered to golang")
	}
	if strings.Contains(msg.Text, "More:") {
		t.Error("single page listing should not offer more")
	}
}

func TestHandleListingPagination(t *testing.T) {
	f := newFixture(t, []feed.Option{feed.WithPageSize(2)})

	f.send(t, "/new")
	first := f.sender.last(t).Text
	if !strings.Contains(first, "All communities · New") {
		t.Errorf("header missing, got: %s", first)
	}
	if !strings.Contains(first, "More: /new 2") {
		t.Errorf("first page should link to page 2, got: %s", first)
	}

	f.send(t, "/new 2")
	second := f.sender.last(t).Text
	if !strings.Contains(second, "page 2") {
		t.Errorf("second page header missing, got: %s", second)
	}
	if strings.Contains(second, "More:") {
		t.Errorf("last page should not offer more, got: %s", second)
	}

	f.send(t, "/week golang 1")
	if !strings.Contains(f.sender.last(t).Text, "More: /week golang 2") {
		t.Errorf("community listing should keep the community, got: %s", f.sender.last(t).Text)
	}
}

func TestHandleListingInvalidPage(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/hot -1")

	if !strings.HasPrefix(f.sender.last(t).Text, "⚠️") {
		t.Errorf("expected a warning reply, got %q", f.sender.last(t).Text)
	}
}

func TestHandleCommunity(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/r Cats new image")

	if len(f.sender.sentMessages) != 2 {
		t.Fatalf("expected header and listing, got %d messages", len(f.sender.sentMessages))
	}
	header := f.sender.sentMessages[0].msg.Text
	if !strings.Contains(header, "Cats being cats") || !strings.Contains(header, "5.4k members") {
		t.Errorf("unexpected community header: %s", header)
	}
	listing := f.sender.sentMessages[1].msg.Text
	if !strings.Contains(listing, "r/cats · New · image") || !strings.Contains(listing, "My cat") {
		t.Errorf("unexpected community listing: %s", listing)
	}
}

func TestHandleCommunityErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"usage", "/r", "Usage: /r"},
		{"unknown community", "/r nowhere", "Community not found"},
		{"unknown type", "/r golang hot gifs", "⚠️"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.send(t, tt.text)

			if len(f.sender.sentMessages) != 1 {
				t.Fatalf("expected 1 message, got %d", len(f.sender.sentMessages))
			}
			if !strings.Contains(f.sender.last(t).Text, tt.want) {
				t.Errorf("reply = %q, want it to contain %q", f.sender.last(t).Text, tt.want)
			}
		})
	}
}

func TestHandlePost(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/post_3")

	msg := f.sender.last(t)
	if !msg.HTML || !strings.Contains(msg.Text, "<b>My cat</b>") {
		t.Errorf("unexpected post message: %s", msg.Text)
	}
	if len(msg.Buttons) != 1 || len(msg.Buttons[0]) != 3 {
		t.Fatalf("buttons = %+v, want one row of three", msg.Buttons)
	}
	if msg.Buttons[0][0].Label != "✅ Up" || msg.Buttons[0][0].Data != "up:3" {
		t.Errorf("up button = %+v", msg.Buttons[0][0])
	}
	if msg.Buttons[0][2].Label != "★ Saved" || msg.Buttons[0][2].Data != "save:3" {
		t.Errorf("save button = %+v", msg.Buttons[0][2])
	}
}

func TestHandlePostErrors(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"/post 99", "Post not found."},
		{"/post abc", "⚠️"},
		{"/post", "⚠️"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			f := newFixture(t, nil)
			f.send(t, tt.text)

			if !strings.HasPrefix(f.sender.last(t).Text, tt.want) {
				t.Errorf("reply = %q, want prefix %q", f.sender.last(t).Text, tt.want)
			}
		})
	}
}

func TestHandleVote(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/up 1")
	p := f.post(t, 1)
	if p.Upvotes != 41 || p.UserVote != post.VoteUp {
		t.Errorf("after /up: upvotes=%d vote=%s, want 41 up", p.Upvotes, p.UserVote)
	}

	f.send(t, "/down 1")
	p = f.post(t, 1)
	if p.Upvotes != 40 || p.Downvotes != 3 || p.UserVote != post.VoteDown {
		t.Errorf("after /down: %d/%d %s, want 40/3 down", p.Upvotes, p.Downvotes, p.UserVote)
	}

	f.send(t, "/down 1")
	p = f.post(t, 1)
	if p.Downvotes != 2 || p.UserVote != post.VoteNone {
		t.Errorf("after second /down: downvotes=%d vote=%s, want 2 none", p.Downvotes, p.UserVote)
	}
}

func TestHandleSaveAndSaved(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/save 1")
	if f.sender.last(t).Text != "★ Saved" {
		t.Errorf("save reply = %q", f.sender.last(t).Text)
	}

	f.send(t, "/saved")
	saved := f.sender.last(t).Text
	if !strings.Contains(saved, "Go 1.22 released") || !strings.Contains(saved, "My cat") {
		t.Errorf("saved listing = %s", saved)
	}

	f.send(t, "/save 3")
	if f.sender.last(t).Text != "Removed from saved" {
		t.Errorf("unsave reply = %q", f.sender.last(t).Text)
	}
	if f.post(t, 3).Saved {
		t.Error("post 3 should no longer be saved")
	}
}

func TestHandleSubmit(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantType post.ContentType
	}{
		{"text", "/submit golang Tabs or spaces | gofmt decides", post.ContentText},
		{"link", "/submit golang Release notes | https://go.dev/doc/go1.22", post.ContentLink},
		{"image", "/submit cats Loaf | https://img.example.com/loaf.JPG?w=200", post.ContentImage},
		{"video", "/submit cats Zoomies | https://vid.example.com/zoom.mp4", post.ContentVideo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.send(t, tt.text)

			p := f.post(t, 5)
			if p.ContentType != tt.wantType {
				t.Errorf("ContentType = %s, want %s", p.ContentType, tt.wantType)
			}
			if p.Author != "alice" || p.AuthorID != "tg_7" {
				t.Errorf("author = %q/%q, want alice/tg_7", p.Author, p.AuthorID)
			}
			if p.UserVote != post.VoteUp || p.Upvotes != 1 {
				t.Errorf("new post should start with the author's upvote, got %d %s", p.Upvotes, p.UserVote)
			}
			if !strings.Contains(f.sender.last(t).Text, "u/alice") {
				t.Errorf("confirmation should render the post, got: %s", f.sender.last(t).Text)
			}
		})
	}
}

func TestHandleSubmitErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"no separator", "/submit golang Just a title", "Usage: /submit"},
		{"no title", "/submit golang | body", "Usage: /submit"},
		{"no body", "/submit golang Title |", "Usage: /submit"},
		{"unknown community", "/submit nowhere Title | body", "Community not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.send(t, tt.text)

			if !strings.Contains(f.sender.last(t).Text, tt.want) {
				t.Errorf("reply = %q, want it to contain %q", f.sender.last(t).Text, tt.want)
			}
			if _, err := f.store.Get(context.Background(), 5); !errors.Is(err, post.ErrNotFound) {
				t.Error("no post should have been created")
			}
		})
	}
}

func TestHandleDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// Post 1 has no author, so nobody can delete it.
	f.send(t, "/delete 1")
	if !strings.Contains(f.sender.last(t).Text, "only delete your own") {
		t.Errorf("reply = %q", f.sender.last(t).Text)
	}

	err := f.handler.Handle(ctx, Incoming{ChatID: 1, UserID: 42, Text: "/delete 4"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !strings.Contains(f.sender.last(t).Text, "Deleted post 4") {
		t.Errorf("reply = %q", f.sender.last(t).Text)
	}
	if _, err := f.store.Get(ctx, 4); !errors.Is(err, post.ErrNotFound) {
		t.Errorf("post 4 should be gone, got %v", err)
	}
}

func TestHandleSearch(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/search GENERICS")
	got := f.sender.last(t).Text
	if !strings.Contains(got, "Generics question") || !strings.Contains(got, "(1)") {
		t.Errorf("search results = %s", got)
	}

	f.send(t, "/search")
	if !strings.HasPrefix(f.sender.last(t).Text, "Usage: /search") {
		t.Errorf("empty search reply = %q", f.sender.last(t).Text)
	}
}

func TestHandleCommunitiesAndMembership(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/communities")
	list := f.sender.last(t).Text
	if strings.Index(list, "r/cats") > strings.Index(list, "r/golang") {
		t.Errorf("communities should be ordered by members, got: %s", list)
	}

	f.send(t, "/join GOLANG")
	if !strings.Contains(f.sender.last(t).Text, "Joined r/golang (1.2k members)") {
		t.Errorf("join reply = %q", f.sender.last(t).Text)
	}
	f.send(t, "/join golang")
	c, _ := f.communities.ByName("golang")
	if !c.IsJoined || c.MemberCount != 1201 {
		t.Errorf("after joining twice: joined=%v members=%d, want true 1201", c.IsJoined, c.MemberCount)
	}

	f.send(t, "/joined")
	if !strings.Contains(f.sender.last(t).Text, "r/golang</b> ✅") {
		t.Errorf("joined listing = %s", f.sender.last(t).Text)
	}

	f.send(t, "/leave golang")
	c, _ = f.communities.ByName("golang")
	if c.IsJoined || c.MemberCount != 1200 {
		t.Errorf("after leaving: joined=%v members=%d, want false 1200", c.IsJoined, c.MemberCount)
	}

	f.send(t, "/join nowhere")
	if !strings.Contains(f.sender.last(t).Text, "Community not found") {
		t.Errorf("unknown join reply = %q", f.sender.last(t).Text)
	}
}

func TestHandleCreateCommunity(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/create rustlang Rust Lang | All things Rust")
	c, err := f.communities.ByName("rustlang")
	if err != nil {
		t.Fatalf("community not created: %v", err)
	}
	if c.DisplayName != "Rust Lang" || c.Description != "All things Rust" || !c.IsJoined {
		t.Errorf("created community = %+v", c)
	}

	f.send(t, "/create x")
	if !strings.HasPrefix(f.sender.last(t).Text, "⚠️") {
		t.Errorf("invalid name reply = %q", f.sender.last(t).Text)
	}
}

func TestHandleTrending(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/trending")
	got := f.sender.last(t).Text
	if !strings.Contains(got, "1. #golang · 12 posts · tech") {
		t.Errorf("trending = %s", got)
	}
}

func TestHandleSettingsCommandDisplay(t *testing.T) {
	f := newFixture(t, nil, WithDigestDefaults("07:30", 3))

	f.send(t, "/settings")
	msg := f.sender.last(t).Text
	if !strings.Contains(msg, "07:30") || !strings.Contains(msg, "Posts per Digest: 3") {
		t.Errorf("settings should show defaults, got: %s", msg)
	}

	f.settings.settings[SettingDigestTime] = "21:15"
	f.settings.settings[SettingDigestCount] = "8"
	f.send(t, "/settings")
	msg = f.sender.last(t).Text
	if !strings.Contains(msg, "21:15") || !strings.Contains(msg, "Posts per Digest: 8") {
		t.Errorf("settings should show stored values, got: %s", msg)
	}
}

func TestHandleSettingsCommandUpdateTime(t *testing.T) {
	updater := &mockScheduleUpdater{}
	f := newFixture(t, nil, WithScheduleUpdater(updater))

	f.send(t, "/settings time 18:30")

	if got := f.settings.settings[SettingDigestTime]; got != "18:30" {
		t.Errorf("digest_time = %q, want '18:30'", got)
	}
	if updater.scheduledTime != "18:30" {
		t.Errorf("scheduler not updated with new time")
	}
}

func TestHandleSettingsCommandRescheduleFails(t *testing.T) {
	updater := &mockScheduleUpdater{err: errors.New("cron down")}
	f := newFixture(t, nil, WithScheduleUpdater(updater))

	err := f.handler.HandleSettings(context.Background(), 12345, "time 18:30")
	if err == nil {
		t.Fatal("expected error when rescheduling fails")
	}
	if _, ok := f.settings.settings[SettingDigestTime]; ok {
		t.Error("digest_time should not be saved when rescheduling fails")
	}
}

func TestHandleSettingsCommandInvalid(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{"bad time", "time 25:00", "Invalid time format"},
		{"bad count", "count 0", "Invalid count"},
		{"count too large", "count 51", "Invalid count"},
		{"count not a number", "count many", "Invalid count"},
		{"unknown setting", "color blue", "Usage:"},
		{"missing value", "time", "Usage:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updater := &mockScheduleUpdater{}
			f := newFixture(t, nil, WithScheduleUpdater(updater))

			if err := f.handler.HandleSettings(context.Background(), 12345, tt.args); err != nil {
				t.Fatalf("HandleSettings failed: %v", err)
			}
			if !strings.Contains(f.sender.last(t).Text, tt.want) {
				t.Errorf("reply = %q, want it to contain %q", f.sender.last(t).Text, tt.want)
			}
			if len(f.settings.settings) != 0 || updater.scheduledTime != "" {
				t.Error("invalid settings should change nothing")
			}
		})
	}
}

func TestHandleSettingsCommandUpdateCount(t *testing.T) {
	f := newFixture(t, nil)

	f.send(t, "/settings count 12")

	if got := f.settings.settings[SettingDigestCount]; got != "12" {
		t.Errorf("digest_count = %q, want '12'", got)
	}
}

func TestHandleDigest(t *testing.T) {
	t.Run("sends posts", func(t *testing.T) {
		trigger := &mockDigestTrigger{sent: 3}
		f := newFixture(t, nil, WithDigestTrigger(trigger))

		f.send(t, "/digest")

		if len(trigger.chats) != 1 || trigger.chats[0] != 12345 {
			t.Errorf("trigger chats = %v, want [12345]", trigger.chats)
		}
		if f.settings.settings[digest.SettingChatID] != "12345" {
			t.Error("chat_id should be saved")
		}
		if len(f.sender.sentMessages) != 0 {
			t.Errorf("expected no extra reply, got %d", len(f.sender.sentMessages))
		}
	})

	t.Run("nothing to send", func(t *testing.T) {
		f := newFixture(t, nil, WithDigestTrigger(&mockDigestTrigger{}))
		f.send(t, "/digest")

		if !strings.Contains(f.sender.last(t).Text, "Nothing new") {
			t.Errorf("reply = %q", f.sender.last(t).Text)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		f := newFixture(t, nil)
		f.send(t, "/digest")

		if !strings.Contains(f.sender.last(t).Text, "not available") {
			t.Errorf("reply = %q", f.sender.last(t).Text)
		}
	})

	t.Run("failure is returned", func(t *testing.T) {
		f := newFixture(t, nil, WithDigestTrigger(&mockDigestTrigger{err: errors.New("telegram down")}))

		if err := f.handler.HandleDigest(context.Background(), 12345); err == nil {
			t.Error("expected digest error to be returned")
		}
	})
}

func TestHandleCallback(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantNotice string
		wantEdit   bool
	}{
		{"upvote", "up:1", "⬆️ Upvoted", true},
		{"downvote", "down:1", "⬇️ Downvoted", true},
		{"remove own upvote", "up:3", "Vote removed", true},
		{"unsave", "save:3", "Removed from saved", true},
		{"save", "save:1", "★ Saved", true},
		{"deleted post", "up:99", "This post no longer exists", false},
		{"bad id", "up:abc", "Unknown action", false},
		{"unknown action", "flip:1", "Unknown action", false},
		{"no separator", "garbage", "Unknown action", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			notice, err := f.handler.HandleCallback(context.Background(), 12345, 77, tt.data)
			if err != nil {
				t.Fatalf("HandleCallback failed: %v", err)
			}
			if notice != tt.wantNotice {
				t.Errorf("notice = %q, want %q", notice, tt.wantNotice)
			}

			if !tt.wantEdit {
				if len(f.sender.edits) != 0 {
					t.Errorf("expected no edit, got %d", len(f.sender.edits))
				}
				return
			}
			if len(f.sender.edits) != 1 {
				t.Fatalf("expected 1 edit, got %d", len(f.sender.edits))
			}
			edit := f.sender.edits[0]
			if edit.chatID != 12345 || edit.messageID != 77 {
				t.Errorf("edited chat %d message %d, want 12345/77", edit.chatID, edit.messageID)
			}
			if len(edit.msg.Buttons) == 0 {
				t.Error("edited message should keep its buttons")
			}
		})
	}
}
