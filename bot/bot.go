package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"threadhub/community"
	"threadhub/digest"
	"threadhub/post"
	"threadhub/ranker"
	"threadhub/topic"
)

// Callback actions carried by inline buttons as "<action>:<id>".
const (
	ActionUp   = "up"
	ActionDown = "down"
	ActionSave = "save"
)

// Setting keys owned by the bot.
const (
	SettingDigestTime  = "digest_time"
	SettingDigestCount = "digest_count"
)

const (
	searchResultLimit = 10
	maxDigestCount    = 50
)

// MessageSender sends and edits Telegram messages.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, msg Message) (int64, error)
	EditMessage(ctx context.Context, chatID, messageID int64, msg Message) error
}

// Feed is the post surface the bot drives.
type Feed interface {
	List(ctx context.Context, q ranker.Query) (*ranker.Page, error)
	Get(ctx context.Context, rawID string) (post.Post, error)
	Create(ctx context.Context, d post.Draft) (post.Post, error)
	Vote(ctx context.Context, rawID, rawVote string) (post.Post, error)
	ToggleSave(ctx context.Context, rawID string) (post.Post, error)
	Delete(ctx context.Context, rawID string) (post.Post, error)
	Search(ctx context.Context, query, sortBy string) ([]post.Post, error)
	Saved(ctx context.Context) ([]post.Post, error)
}

// Communities looks up and joins communities.
type Communities interface {
	Popular(limit int) []community.Community
	ByName(name string) (community.Community, error)
	Join(name string) (community.Community, error)
	Leave(name string) (community.Community, error)
	Joined() []community.Community
	Create(name, displayName, description string) (community.Community, error)
}

// Topics provides trending topics.
type Topics interface {
	Trending(limit int) []topic.Topic
}

// SettingsStore manages persistent settings.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// ScheduleUpdater moves the daily digest to a new time.
type ScheduleUpdater interface {
	Reschedule(timeStr string) error
}

// DigestTrigger runs the digest for a chat and reports how many posts went out.
type DigestTrigger interface {
	TriggerDigest(ctx context.Context, chatID int64) (int, error)
}

// Incoming is a text message addressed to the bot.
type Incoming struct {
	ChatID   int64
	UserID   int64
	Username string
	Text     string
}

var timeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// listingSorts maps listing commands onto sort keys.
var listingSorts = map[string]ranker.SortKey{
	"hot":           ranker.SortHot,
	"new":           ranker.SortNew,
	"top":           ranker.SortTop,
	"week":          ranker.SortTopWeek,
	"controversial": ranker.SortControversial,
	"rising":        ranker.SortRising,
}

const helpText = "ThreadHub commands:\n\n" +
	"/hot, /new, /top, /week, /controversial, /rising [community] [page]\n" +
	"/r community [sort] [type] [page] - browse a community\n" +
	"/post id - show a post\n" +
	"/up id, /down id - vote\n" +
	"/save id - save or unsave, /saved - your saved posts\n" +
	"/submit community title | text or url - create a post\n" +
	"/delete id - delete one of your posts\n" +
	"/search words - search posts\n" +
	"/communities - popular communities\n" +
	"/join name, /leave name - membership, /joined - your communities\n" +
	"/create name [display name] | description - start a community\n" +
	"/trending - trending topics\n" +
	"/settings - digest settings\n" +
	"/digest - send the weekly digest now\n\n" +
	"Types: all, image, video, link, discussion"

// CommandHandler handles bot commands.
type CommandHandler struct {
	sender        MessageSender
	feed          Feed
	communities   Communities
	topics        Topics
	settings      SettingsStore
	schedUpdater  ScheduleUpdater
	digestTrigger DigestTrigger
	digestTime    string
	digestCount   int
	now           func() time.Time
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithScheduleUpdater lets /settings move the digest.
func WithScheduleUpdater(u ScheduleUpdater) Option {
	return func(h *CommandHandler) {
		h.schedUpdater = u
	}
}

// WithDigestTrigger enables /digest.
func WithDigestTrigger(t DigestTrigger) Option {
	return func(h *CommandHandler) {
		h.digestTrigger = t
	}
}

// WithDigestDefaults sets the values shown when no setting is stored.
func WithDigestDefaults(timeStr string, count int) Option {
	return func(h *CommandHandler) {
		h.digestTime = timeStr
		h.digestCount = count
	}
}

// WithClock sets the time source used for relative timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *CommandHandler) {
		h.now = now
	}
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(
	sender MessageSender,
	feed Feed,
	communities Communities,
	topics Topics,
	settings SettingsStore,
	opts ...Option,
) *CommandHandler {
	h := &CommandHandler{
		sender:      sender,
		feed:        feed,
		communities: communities,
		topics:      topics,
		settings:    settings,
		digestTime:  "09:00",
		digestCount: 5,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ParseCommand splits "/cmd@bot args" into its lower-case name and the
// argument string. "/post_12" is read as "/post 12".
func ParseCommand(text string) (cmd, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	head = strings.ToLower(head)
	args = strings.TrimSpace(rest)

	if name, suffix, found := strings.Cut(head, "_"); found && isDigits(suffix) {
		head = name
		args = strings.TrimSpace(suffix + " " + args)
	}
	if head == "" {
		return "", "", false
	}
	return head, args, true
}

// Handle dispatches one incoming message.
func (h *CommandHandler) Handle(ctx context.Context, in Incoming) error {
	cmd, args, ok := ParseCommand(in.Text)
	if !ok {
		return nil
	}

	if key, ok := listingSorts[cmd]; ok {
		return h.HandleListing(ctx, in.ChatID, key, args)
	}

	switch cmd {
	case "start":
		return h.HandleStart(ctx, in.ChatID)
	case "help":
		return h.reply(ctx, in.ChatID, helpText)
	case "r":
		return h.HandleCommunity(ctx, in.ChatID, args)
	case "post":
		return h.HandlePost(ctx, in.ChatID, args)
	case ActionUp, ActionDown:
		return h.HandleVote(ctx, in.ChatID, args, cmd)
	case ActionSave:
		return h.HandleSave(ctx, in.ChatID, args)
	case "saved":
		return h.HandleSaved(ctx, in.ChatID)
	case "submit":
		return h.HandleSubmit(ctx, in, args)
	case "delete":
		return h.HandleDelete(ctx, in, args)
	case "search":
		return h.HandleSearch(ctx, in.ChatID, args)
	case "communities":
		return h.HandleCommunities(ctx, in.ChatID)
	case "join":
		return h.HandleMembership(ctx, in.ChatID, args, true)
	case "leave":
		return h.HandleMembership(ctx, in.ChatID, args, false)
	case "joined":
		return h.replyHTML(ctx, in.ChatID, FormatCommunities("Your communities", h.communities.Joined()))
	case "create":
		return h.HandleCreateCommunity(ctx, in.ChatID, args)
	case "trending":
		return h.HandleTrending(ctx, in.ChatID)
	case "settings":
		return h.HandleSettings(ctx, in.ChatID, args)
	case "digest":
		return h.HandleDigest(ctx, in.ChatID)
	default:
		return h.reply(ctx, in.ChatID, "Unknown command. Try /help")
	}
}

// HandleStart handles the /start command.
func (h *CommandHandler) HandleStart(ctx context.Context, chatID int64) error {
	if err := h.settings.SetSetting(ctx, digest.SettingChatID, strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("save chat_id: %w", err)
	}
	return h.reply(ctx, chatID, "Welcome to ThreadHub! 🧵\n\n"+helpText)
}

// HandleListing handles /hot, /new, /top, /week, /controversial and /rising.
// Arguments are an optional community and an optional page number.
func (h *CommandHandler) HandleListing(ctx context.Context, chatID int64, key ranker.SortKey, args string) error {
	q := ranker.Query{SortBy: string(key)}
	for _, tok := range strings.Fields(args) {
		if n, err := strconv.Atoi(tok); err == nil {
			q.Page = n
			continue
		}
		q.Community = tok
	}
	next := func(page int) string {
		if q.Community != "" {
			return fmt.Sprintf("/%s %s %d", commandFor(key), q.Community, page)
		}
		return fmt.Sprintf("/%s %d", commandFor(key), page)
	}
	return h.sendListing(ctx, chatID, q, listingHeader(key, q.Community), next)
}

// HandleCommunity handles /r <community> [sort] [type] [page].
func (h *CommandHandler) HandleCommunity(ctx context.Context, chatID int64, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return h.reply(ctx, chatID, "Usage: /r community [sort] [type] [page]")
	}

	c, err := h.communities.ByName(fields[0])
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}

	q := ranker.Query{Community: c.Name, SortBy: string(ranker.SortHot)}
	for _, tok := range fields[1:] {
		if n, err := strconv.Atoi(tok); err == nil {
			q.Page = n
			continue
		}
		if key, ok := sortAlias(tok); ok {
			q.SortBy = string(key)
			continue
		}
		if _, err := ranker.ParsePostType(tok); err != nil {
			return h.replyError(ctx, chatID, err)
		}
		q.PostType = tok
	}

	if err := h.reply(ctx, chatID, FormatCommunityHeader(c, h.now())); err != nil {
		return err
	}
	header := listingHeader(ranker.SortKey(q.SortBy), c.Name)
	if q.PostType != "" {
		header += " · " + strings.ToLower(q.PostType)
	}
	next := func(page int) string {
		return strings.Join(strings.Fields(fmt.Sprintf("/r %s %s %s %d", c.Name, q.SortBy, q.PostType, page)), " ")
	}
	return h.sendListing(ctx, chatID, q, header, next)
}

// HandlePost handles /post <id>.
func (h *CommandHandler) HandlePost(ctx context.Context, chatID int64, args string) error {
	p, err := h.feed.Get(ctx, args)
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}
	_, err = h.sender.SendMessage(ctx, chatID, FormatPost(p, h.now()))
	return err
}

// HandleVote handles /up <id> and /down <id>.
func (h *CommandHandler) HandleVote(ctx context.Context, chatID int64, args, vote string) error {
	p, err := h.feed.Vote(ctx, args, vote)
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}
	_, err = h.sender.SendMessage(ctx, chatID, FormatPost(p, h.now()))
	return err
}

// HandleSave handles /save <id>.
func (h *CommandHandler) HandleSave(ctx context.Context, chatID int64, args string) error {
	p, err := h.feed.ToggleSave(ctx, args)
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}
	return h.reply(ctx, chatID, saveNotice(p))
}

// HandleSaved handles /saved.
func (h *CommandHandler) HandleSaved(ctx context.Context, chatID int64) error {
	posts, err := h.feed.Saved(ctx)
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}
	return h.replyHTML(ctx, chatID, FormatListing("Saved posts", posts, h.now()))
}

// HandleSubmit handles /submit <community> <title> | <text or url>. A body
// that is a web address makes a link post, or an image or video post when
// the address ends in a known media extension.
func (h *CommandHandler) HandleSubmit(ctx context.Context, in Incoming, args string) error {
	head, body, found := strings.Cut(args, "|")
	name, title, _ := strings.Cut(strings.TrimSpace(head), " ")
	body = strings.TrimSpace(body)
	if !found || name == "" || strings.TrimSpace(title) == "" || body == "" {
		return h.reply(ctx, in.ChatID, "Usage: /submit community title | text or url")
	}

	c, err := h.communities.ByName(name)
	if err != nil {
		return h.replyError(ctx, in.ChatID, err)
	}

	d := post.Draft{
		Title:     title,
		Community: c.Name,
		Author:    in.Username,
		AuthorID:  authorID(in.UserID),
	}
	d.ContentType = contentTypeFor(body)
	if d.ContentType == post.ContentText {
		d.Content = body
	} else {
		d.URL = body
	}

	p, err := h.feed.Create(ctx, d)
	if err != nil {
		return h.replyError(ctx, in.ChatID, err)
	}
	_, err = h.sender.SendMessage(ctx, in.ChatID, FormatPost(p, h.now()))
	return err
}

// HandleDelete handles /delete <id>. Only the author may delete a post.
func (h *CommandHandler) HandleDelete(ctx context.Context, in Incoming, args string) error {
	p, err := h.feed.Get(ctx, args)
	if err != nil {
		return h.replyError(ctx, in.ChatID, err)
	}
	if p.AuthorID == "" || p.AuthorID != authorID(in.UserID) {
		return h.reply(ctx, in.ChatID, "You can only delete your own posts.")
	}

	if _, err := h.feed.Delete(ctx, args); err != nil {
		return h.replyError(ctx, in.ChatID, err)
	}
	return h.reply(ctx, in.ChatID, fmt.Sprintf("🗑 Deleted post %d.", p.ID))
}

// HandleSearch handles /search <query>.
func (h *CommandHandler) HandleSearch(ctx context.Context, chatID int64, query string) error {
	if strings.TrimSpace(query) == "" {
		return h.reply(ctx, chatID, "Usage: /search words")
	}

	posts, err := h.feed.Search(ctx, query, ranker.SearchRelevance)
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}
	header := fmt.Sprintf("Results for %q (%d)", query, len(posts))
	if len(posts) > searchResultLimit {
		posts = posts[:searchResultLimit]
	}
	return h.replyHTML(ctx, chatID, FormatListing(header, posts, h.now()))
}

// HandleCommunities handles /communities.
func (h *CommandHandler) HandleCommunities(ctx context.Context, chatID int64) error {
	popular := h.communities.Popular(community.DefaultPopularLimit)
	return h.replyHTML(ctx, chatID, FormatCommunities("Popular communities", popular))
}

// HandleMembership handles /join and /leave. Both are idempotent.
func (h *CommandHandler) HandleMembership(ctx context.Context, chatID int64, name string, join bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		if join {
			return h.reply(ctx, chatID, "Usage: /join name")
		}
		return h.reply(ctx, chatID, "Usage: /leave name")
	}

	var (
		c   community.Community
		err error
	)
	if join {
		c, err = h.communities.Join(name)
	} else {
		c, err = h.communities.Leave(name)
	}
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}

	if join {
		return h.reply(ctx, chatID, fmt.Sprintf("✅ Joined r/%s (%s members)", c.Name, FormatNumber(c.MemberCount)))
	}
	return h.reply(ctx, chatID, fmt.Sprintf("👋 Left r/%s", c.Name))
}

// HandleCreateCommunity handles /create <name> [display name] | <description>.
func (h *CommandHandler) HandleCreateCommunity(ctx context.Context, chatID int64, args string) error {
	head, description, _ := strings.Cut(args, "|")
	name, displayName, _ := strings.Cut(strings.TrimSpace(head), " ")
	if name == "" {
		return h.reply(ctx, chatID, "Usage: /create name [display name] | description")
	}

	c, err := h.communities.Create(name, displayName, strings.TrimSpace(description))
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}
	return h.replyHTML(ctx, chatID, "🎉 Created\n"+FormatCommunityHeader(c, h.now()))
}

// HandleTrending handles /trending.
func (h *CommandHandler) HandleTrending(ctx context.Context, chatID int64) error {
	return h.replyHTML(ctx, chatID, FormatTopics(h.topics.Trending(topic.DefaultTrendingLimit)))
}

// HandleSettings handles the /settings command.
func (h *CommandHandler) HandleSettings(ctx context.Context, chatID int64, args string) error {
	args = strings.TrimSpace(args)

	if args == "" {
		return h.displaySettings(ctx, chatID)
	}

	parts := strings.SplitN(args, " ", 2)
	if len(parts) < 2 {
		return h.sendSettingsUsage(ctx, chatID)
	}

	subCmd := strings.ToLower(parts[0])
	value := strings.TrimSpace(parts[1])

	switch subCmd {
	case "time":
		return h.updateDigestTime(ctx, chatID, value)
	case "count":
		return h.updateDigestCount(ctx, chatID, value)
	default:
		return h.sendSettingsUsage(ctx, chatID)
	}
}

func (h *CommandHandler) displaySettings(ctx context.Context, chatID int64) error {
	digestTime := h.digestTime
	if t, err := h.settings.GetSetting(ctx, SettingDigestTime); err == nil {
		digestTime = t
	}

	digestCount := strconv.Itoa(h.digestCount)
	if c, err := h.settings.GetSetting(ctx, SettingDigestCount); err == nil {
		digestCount = c
	}

	msg := fmt.Sprintf("Current Settings:\n\n"+
		"📅 Digest Time: %s\n"+
		"📰 Posts per Digest: %s\n\n"+
		"Update with:\n"+
		"/settings time HH:MM\n"+
		"/settings count N", digestTime, digestCount)

	return h.reply(ctx, chatID, msg)
}

func (h *CommandHandler) updateDigestTime(ctx context.Context, chatID int64, timeStr string) error {
	if !timeRegex.MatchString(timeStr) {
		return h.reply(ctx, chatID, "Invalid time format. Use HH:MM (e.g., 09:00, 18:30)")
	}

	if h.schedUpdater != nil {
		if err := h.schedUpdater.Reschedule(timeStr); err != nil {
			return fmt.Errorf("reschedule digest: %w", err)
		}
	}

	if err := h.settings.SetSetting(ctx, SettingDigestTime, timeStr); err != nil {
		return fmt.Errorf("save digest_time: %w", err)
	}

	return h.reply(ctx, chatID, fmt.Sprintf("✅ Digest time updated to %s", timeStr))
}

func (h *CommandHandler) updateDigestCount(ctx context.Context, chatID int64, countStr string) error {
	count, err := strconv.Atoi(countStr)
	if err != nil || count < 1 || count > maxDigestCount {
		return h.reply(ctx, chatID, fmt.Sprintf("Invalid count. Must be a number between 1 and %d.", maxDigestCount))
	}

	if err := h.settings.SetSetting(ctx, SettingDigestCount, strconv.Itoa(count)); err != nil {
		return fmt.Errorf("save digest_count: %w", err)
	}

	return h.reply(ctx, chatID, fmt.Sprintf("✅ Posts per digest updated to %d", count))
}

func (h *CommandHandler) sendSettingsUsage(ctx context.Context, chatID int64) error {
	msg := "Usage:\n" +
		"/settings - Show current settings\n" +
		"/settings time HH:MM - Update digest time\n" +
		fmt.Sprintf("/settings count N - Update posts per digest (1-%d)", maxDigestCount)
	return h.reply(ctx, chatID, msg)
}

// HandleDigest handles the /digest command.
func (h *CommandHandler) HandleDigest(ctx context.Context, chatID int64) error {
	if h.digestTrigger == nil {
		return h.reply(ctx, chatID, "The digest is not available.")
	}
	if err := h.settings.SetSetting(ctx, digest.SettingChatID, strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("save chat_id: %w", err)
	}

	n, err := h.digestTrigger.TriggerDigest(ctx, chatID)
	if err != nil {
		return fmt.Errorf("trigger digest: %w", err)
	}
	if n == 0 {
		return h.reply(ctx, chatID, "Nothing new for the digest this week.")
	}
	return nil
}

// HandleCallback applies an inline button press and refreshes the post
// message. It returns the notice shown to the user.
func (h *CommandHandler) HandleCallback(ctx context.Context, chatID, messageID int64, data string) (string, error) {
	action, rawID, ok := strings.Cut(data, ":")
	if !ok {
		return "Unknown action", nil
	}

	var (
		p   post.Post
		err error
	)
	switch action {
	case ActionUp, ActionDown:
		p, err = h.feed.Vote(ctx, rawID, action)
	case ActionSave:
		p, err = h.feed.ToggleSave(ctx, rawID)
	default:
		return "Unknown action", nil
	}
	if err != nil {
		switch {
		case errors.Is(err, post.ErrNotFound):
			return "This post no longer exists", nil
		case errors.Is(err, post.ErrInvalidArgument):
			return "Unknown action", nil
		}
		return "", err
	}

	if err := h.sender.EditMessage(ctx, chatID, messageID, FormatPost(p, h.now())); err != nil {
		return "", fmt.Errorf("refresh post message: %w", err)
	}

	if action == ActionSave {
		return saveNotice(p), nil
	}
	return voteNotice(p), nil
}

func (h *CommandHandler) sendListing(ctx context.Context, chatID int64, q ranker.Query, header string, next func(page int) string) error {
	page, err := h.feed.List(ctx, q)
	if err != nil {
		return h.replyError(ctx, chatID, err)
	}

	n := max(q.Page, 1)
	if n > 1 {
		header = fmt.Sprintf("%s · page %d", header, n)
	}
	text := FormatListing(header, page.Posts, h.now())
	if page.HasMore {
		text += "\nMore: " + next(n+1)
	}
	return h.replyHTML(ctx, chatID, text)
}

// replyError turns caller mistakes into a reply and returns anything else.
func (h *CommandHandler) replyError(ctx context.Context, chatID int64, err error) error {
	switch {
	case errors.Is(err, post.ErrNotFound):
		return h.reply(ctx, chatID, "Post not found.")
	case errors.Is(err, community.ErrNotFound):
		return h.reply(ctx, chatID, "Community not found. See /communities")
	case errors.Is(err, post.ErrInvalidArgument), errors.Is(err, community.ErrInvalidArgument):
		return h.reply(ctx, chatID, "⚠️ "+err.Error())
	}
	return err
}

func (h *CommandHandler) reply(ctx context.Context, chatID int64, text string) error {
	_, err := h.sender.SendMessage(ctx, chatID, Message{Text: text})
	return err
}

func (h *CommandHandler) replyHTML(ctx context.Context, chatID int64, text string) error {
	_, err := h.sender.SendMessage(ctx, chatID, Message{Text: text, HTML: true})
	return err
}

func listingHeader(key ranker.SortKey, communityName string) string {
	scope := "All communities"
	if communityName != "" {
		scope = "r/" + communityName
	}
	return fmt.Sprintf("%s · %s", scope, sortLabel(key))
}

func sortLabel(key ranker.SortKey) string {
	switch key {
	case ranker.SortNew:
		return "New"
	case ranker.SortTop:
		return "Top"
	case ranker.SortTopWeek:
		return "Top this week"
	case ranker.SortControversial:
		return "Controversial"
	case ranker.SortRising:
		return "Rising"
	default:
		return "Hot"
	}
}

// sortAlias accepts sort keys case-insensitively, plus "week" for topWeek.
func sortAlias(tok string) (ranker.SortKey, bool) {
	tok = strings.ToLower(tok)
	if key, ok := listingSorts[tok]; ok {
		return key, true
	}
	for _, key := range ranker.Sorts() {
		if strings.ToLower(string(key)) == tok {
			return key, true
		}
	}
	return "", false
}

// commandFor returns the listing command for a sort key.
func commandFor(key ranker.SortKey) string {
	for _, cmd := range []string{"hot", "new", "top", "week", "controversial", "rising"} {
		if listingSorts[cmd] == key {
			return cmd
		}
	}
	return "hot"
}

func saveNotice(p post.Post) string {
	if p.Saved {
		return "★ Saved"
	}
	return "Removed from saved"
}

func voteNotice(p post.Post) string {
	switch p.UserVote {
	case post.VoteUp:
		return "⬆️ Upvoted"
	case post.VoteDown:
		return "⬇️ Downvoted"
	default:
		return "Vote removed"
	}
}

// contentTypeFor infers the draft type from a /submit body.
func contentTypeFor(body string) post.ContentType {
	if !strings.HasPrefix(body, "http://") && !strings.HasPrefix(body, "https://") {
		return post.ContentText
	}
	path := strings.ToLower(body)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(path, ext) {
			return post.ContentImage
		}
	}
	for _, ext := range []string{".mp4", ".webm", ".mov"} {
		if strings.HasSuffix(path, ext) {
			return post.ContentVideo
		}
	}
	return post.ContentLink
}

func authorID(userID int64) string {
	if userID == 0 {
		return ""
	}
	return "tg_" + strconv.FormatInt(userID, 10)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
