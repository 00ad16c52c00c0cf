package ranker

import (
	"cmp"
	"math"
	"slices"
	"time"

	"threadhub/post"
)

// SortKey selects a ranking strategy.
type SortKey string

const (
	SortHot           SortKey = "hot"
	SortNew           SortKey = "new"
	SortTop           SortKey = "top"
	SortTopWeek       SortKey = "topWeek"
	SortControversial SortKey = "controversial"
	SortRising        SortKey = "rising"
)

// TopWeekWindow is how far back topWeek looks.
const TopWeekWindow = 7 * 24 * time.Hour

// strategy scores posts for one sort key. keep, when set, drops posts
// before scoring.
type strategy struct {
	keep  func(p post.Post, now time.Time) bool
	score func(p post.Post, now time.Time) float64
}

var strategies = map[SortKey]strategy{
	SortHot:           {score: HotScore},
	SortNew:           {score: newestScore},
	SortTop:           {score: topScore},
	SortTopWeek:       {keep: withinWeek, score: topScore},
	SortControversial: {score: controversialScore},
	SortRising:        {score: RisingScore},
}

// ResolveSort maps a requested sort onto a known key, falling back to hot.
func ResolveSort(raw string) SortKey {
	key := SortKey(raw)
	if _, ok := strategies[key]; ok {
		return key
	}
	return SortHot
}

// Sorts lists every supported sort key.
func Sorts() []SortKey {
	return []SortKey{SortHot, SortNew, SortTop, SortTopWeek, SortControversial, SortRising}
}

type scored struct {
	post  post.Post
	score float64
}

// Sort orders posts by the strategy for key, highest score first. The sort
// is stable so equal scores keep their encounter order. The input slice is
// not modified.
func Sort(posts []post.Post, key SortKey, now time.Time) []post.Post {
	s, ok := strategies[key]
	if !ok {
		s = strategies[SortHot]
	}

	ranked := make([]scored, 0, len(posts))
	for _, p := range posts {
		if s.keep != nil && !s.keep(p, now) {
			continue
		}
		ranked = append(ranked, scored{post: p, score: s.score(p, now)})
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	out := make([]post.Post, len(ranked))
	for i, r := range ranked {
		out[i] = r.post
	}
	return out
}

// HotScore is ln(max(1, net)) / (ageHours + 2)^1.5.
func HotScore(p post.Post, now time.Time) float64 {
	ageHours := math.Max(0, now.Sub(p.CreatedAt).Hours())
	magnitude := math.Log(math.Max(1, float64(p.NetVotes())))
	return magnitude / math.Pow(ageHours+2, 1.5)
}

// RisingScore is net votes divided by age in milliseconds. Age is floored
// at one millisecond.
func RisingScore(p post.Post, now time.Time) float64 {
	age := math.Max(1, float64(now.Sub(p.CreatedAt).Milliseconds()))
	return float64(p.NetVotes()) / age
}

// ControversialScore rewards engagement on posts whose up/down ratio is
// close to one.
func ControversialScore(p post.Post) float64 {
	ratio := float64(p.Upvotes) / math.Max(1, float64(p.Downvotes))
	engagement := float64(p.Upvotes + p.Downvotes + p.CommentCount)
	return engagement / (math.Abs(ratio-1) + 1)
}

func controversialScore(p post.Post, _ time.Time) float64 {
	return ControversialScore(p)
}

func topScore(p post.Post, _ time.Time) float64 {
	return float64(p.NetVotes())
}

// Microseconds since the epoch stay exact in a float64.
func newestScore(p post.Post, _ time.Time) float64 {
	return float64(p.CreatedAt.UnixMicro())
}

func withinWeek(p post.Post, now time.Time) bool {
	return !p.CreatedAt.Before(now.Add(-TopWeekWindow))
}
