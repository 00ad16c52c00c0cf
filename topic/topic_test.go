package topic

import (
	"testing"

	"threadhub/post"
)

func testBoard() *Board {
	return NewBoard([]Topic{
		{ID: 1, Name: "Generics", PostCount: 12, Category: "programming"},
		{ID: 2, Name: "Sourdough", PostCount: 40, Category: "food"},
		{ID: 3, Name: "GopherCon", PostCount: 7, Category: "events"},
	})
}

func TestTrending(t *testing.T) {
	b := testBoard()

	got := b.Trending(2)
	if len(got) != 2 || got[0].Name != "Sourdough" || got[1].Name != "Generics" {
		t.Errorf("Trending(2) = %+v", got)
	}
	if got := b.Trending(0); len(got) != 3 {
		t.Errorf("Trending(0) returned %d, want 3", len(got))
	}
}

func TestSearch(t *testing.T) {
	b := testBoard()

	tests := []struct {
		query string
		want  int
	}{
		{"gen", 1},
		{"GO", 1},
		{"o", 2},
		{"", 3},
		{"kubernetes", 0},
	}

	for _, tt := range tests {
		if got := b.Search(tt.query); len(got) != tt.want {
			t.Errorf("Search(%q) returned %d, want %d", tt.query, len(got), tt.want)
		}
	}
}

func TestRefresh(t *testing.T) {
	b := testBoard()

	b.Refresh([]post.Post{
		{Title: "Generics in practice", Content: "type parameters and generics"},
		{Title: "Notes", Content: "See you at gophercon"},
		{Title: "Another generics post"},
	})

	counts := map[string]int{}
	for _, tp := range b.All() {
		counts[tp.Name] = tp.PostCount
	}
	if counts["Generics"] != 2 {
		t.Errorf("Generics = %d, want 2", counts["Generics"])
	}
	if counts["GopherCon"] != 1 {
		t.Errorf("GopherCon = %d, want 1", counts["GopherCon"])
	}
	if counts["Sourdough"] != 0 {
		t.Errorf("Sourdough = %d, want 0", counts["Sourdough"])
	}
}
