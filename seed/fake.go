package seed

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"threadhub/post"
)

// FakePosts generates n demo posts spread over the last two weeks. The same
// seed always yields the same posts. Identifiers start after firstID.
func FakePosts(n int, seed int64, firstID int64, communities []string, now time.Time) []post.Post {
	if n <= 0 {
		return []post.Post{}
	}
	if len(communities) == 0 {
		communities = []string{"general"}
	}

	faker := gofakeit.New(seed)
	posts := make([]post.Post, 0, n)
	for i := 0; i < n; i++ {
		p := post.Post{
			ID:           firstID + int64(i) + 1,
			Title:        faker.Sentence(faker.Number(4, 10)),
			Community:    faker.RandomString(communities),
			Author:       faker.Username(),
			AuthorID:     fmt.Sprintf("u_%d", faker.Number(1, 500)),
			CreatedAt:    now.Add(-time.Duration(faker.Number(1, 14*24*60)) * time.Minute),
			Upvotes:      faker.Number(0, 2500),
			Downvotes:    faker.Number(0, 400),
			UserVote:     post.VoteNone,
			CommentCount: faker.Number(0, 300),
		}

		switch faker.Number(0, 3) {
		case 0:
			p.ContentType = post.ContentText
			p.Content = faker.Paragraph(1, 3, 12, " ")
		case 1:
			p.ContentType = post.ContentLink
			p.URL = faker.URL()
		case 2:
			p.ContentType = post.ContentImage
			img := faker.ImageURL(640, 480)
			p.Media = []post.Media{{Type: post.ContentImage, URL: img}}
			p.ThumbnailURL = img
		default:
			p.ContentType = post.ContentVideo
			video := faker.URL()
			p.Media = []post.Media{{Type: post.ContentVideo, URL: video}}
			p.ThumbnailURL = faker.ImageURL(320, 180)
		}

		posts = append(posts, p)
	}
	return posts
}
