package bot

import (
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"threadhub/community"
	"threadhub/post"
	"threadhub/topic"
)

const snippetLength = 280

// Button is an inline keyboard button carrying callback data.
type Button struct {
	Label string
	Data  string
}

// Message is a rendered chat message.
type Message struct {
	Text    string
	HTML    bool
	Buttons [][]Button
}

// FormatNumber abbreviates counts: 999, 1k, 1.5k, 2.3m.
func FormatNumber(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}
	if n < 1000000 {
		return abbreviate(float64(n)/1000, "k")
	}
	return abbreviate(float64(n)/1000000, "m")
}

func abbreviate(v float64, unit string) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0") + unit
}

// FormatAge renders how long ago t was, relative to now.
func FormatAge(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatPost renders a single post with vote and save buttons.
func FormatPost(p post.Post, now time.Time) Message {
	var sb strings.Builder

	if p.IsPinned {
		sb.WriteString("📌 ")
	}
	fmt.Fprintf(&sb, "<b>%s</b>\n", html.EscapeString(p.Title))
	sb.WriteString(byline(p, now))
	sb.WriteString("\n")

	body := p.Excerpt
	if body == "" {
		body = p.Content
	}
	if body != "" {
		fmt.Fprintf(&sb, "\n<i>%s</i>\n", html.EscapeString(snippet(body, snippetLength)))
	}

	if p.URL != "" {
		fmt.Fprintf(&sb, "\n🔗 <a href=\"%s\">%s</a>\n", html.EscapeString(p.URL), html.EscapeString(hostname(p.URL)))
	}
	for _, m := range p.Media {
		fmt.Fprintf(&sb, "\n%s <a href=\"%s\">%s</a>\n", mediaIcon(m.Type), html.EscapeString(m.URL), m.Type)
	}

	fmt.Fprintf(&sb, "\n⬆️ %s · ⬇️ %s · 💬 %s comments",
		FormatNumber(p.Upvotes), FormatNumber(p.Downvotes), FormatNumber(p.CommentCount))

	return Message{
		Text:    sb.String(),
		HTML:    true,
		Buttons: PostButtons(p),
	}
}

// PostButtons returns the vote and save keyboard for a post. The active
// vote and the saved state are marked.
func PostButtons(p post.Post) [][]Button {
	up, down, save := "⬆️ Up", "⬇️ Down", "☆ Save"
	switch p.UserVote {
	case post.VoteUp:
		up = "✅ Up"
	case post.VoteDown:
		down = "✅ Down"
	}
	if p.Saved {
		save = "★ Saved"
	}

	id := strconv.FormatInt(p.ID, 10)
	return [][]Button{{
		{Label: up, Data: ActionUp + ":" + id},
		{Label: down, Data: ActionDown + ":" + id},
		{Label: save, Data: ActionSave + ":" + id},
	}}
}

// FormatListing renders a numbered list of posts under a header. Each
// entry links to its /post command.
func FormatListing(header string, posts []post.Post, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n", html.EscapeString(header))

	if len(posts) == 0 {
		sb.WriteString("\nNo posts here yet.")
		return sb.String()
	}

	for i, p := range posts {
		pin := ""
		if p.IsPinned {
			pin = "📌 "
		}
		fmt.Fprintf(&sb, "\n%d. %s%s\n", i+1, pin, html.EscapeString(p.Title))
		fmt.Fprintf(&sb, "    ⬆️ %s · 💬 %s · r/%s · %s · /post_%d\n",
			FormatNumber(p.NetVotes()),
			FormatNumber(p.CommentCount),
			html.EscapeString(p.Community),
			FormatAge(p.CreatedAt, now),
			p.ID,
		)
	}
	return sb.String()
}

// FormatCommunities renders communities with their member counts.
func FormatCommunities(header string, communities []community.Community) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n", html.EscapeString(header))

	if len(communities) == 0 {
		sb.WriteString("\nNone yet.")
		return sb.String()
	}

	for i, c := range communities {
		joined := ""
		if c.IsJoined {
			joined = " ✅"
		}
		fmt.Fprintf(&sb, "\n%d. <b>r/%s</b>%s · %s members\n",
			i+1, html.EscapeString(c.Name), joined, FormatNumber(c.MemberCount))
		if c.Description != "" {
			fmt.Fprintf(&sb, "    %s\n", html.EscapeString(snippet(c.Description, 120)))
		}
	}
	return sb.String()
}

// FormatCommunityHeader renders the banner shown above a community listing.
func FormatCommunityHeader(c community.Community, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b> · r/%s\n", html.EscapeString(c.DisplayName), html.EscapeString(c.Name))
	if c.Description != "" {
		fmt.Fprintf(&sb, "%s\n", html.EscapeString(c.Description))
	}
	fmt.Fprintf(&sb, "👥 %s members · created %s", FormatNumber(c.MemberCount), FormatAge(c.CreatedAt, now))
	return sb.String()
}

// FormatTopics renders trending topics.
func FormatTopics(topics []topic.Topic) string {
	var sb strings.Builder
	sb.WriteString("<b>Trending topics</b>\n")

	if len(topics) == 0 {
		sb.WriteString("\nNothing is trending right now.")
		return sb.String()
	}

	for i, t := range topics {
		fmt.Fprintf(&sb, "\n%d. #%s · %s posts", i+1, html.EscapeString(t.Name), FormatNumber(t.PostCount))
		if t.Category != "" {
			fmt.Fprintf(&sb, " · %s", html.EscapeString(t.Category))
		}
	}
	return sb.String()
}

func byline(p post.Post, now time.Time) string {
	parts := []string{"r/" + html.EscapeString(p.Community)}
	if p.Author != "" {
		parts = append(parts, "u/"+html.EscapeString(p.Author))
	}
	parts = append(parts, FormatAge(p.CreatedAt, now))
	return strings.Join(parts, " · ")
}

func mediaIcon(t post.ContentType) string {
	if t == post.ContentVideo {
		return "🎬"
	}
	return "🖼"
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// snippet collapses whitespace and cuts s to at most n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}
