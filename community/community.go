package community

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound        = errors.New("community not found")
	ErrInvalidArgument = errors.New("invalid community")
)

// DefaultPopularLimit is used by Popular when limit is not positive.
const DefaultPopularLimit = 10

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

// Community is a named group that posts belong to.
type Community struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Description string    `json:"description"`
	MemberCount int       `json:"memberCount"`
	IsJoined    bool      `json:"isJoined"`
	CreatedAt   time.Time `json:"createdAt"`
	Rules       []string  `json:"rules"`
	Icon        string    `json:"icon,omitempty"`
	BannerImage string    `json:"bannerImage,omitempty"`
}

func (c Community) clone() Community {
	c.Rules = slices.Clone(c.Rules)
	if c.Rules == nil {
		c.Rules = []string{}
	}
	return c
}

// Directory holds the known communities in memory.
type Directory struct {
	mu          sync.RWMutex
	communities []*Community
	now         func() time.Time
}

// NewDirectory creates a directory seeded with communities.
func NewDirectory(seed []Community) *Directory {
	d := &Directory{now: time.Now}
	for _, c := range seed {
		c := c.clone()
		d.communities = append(d.communities, &c)
	}
	return d
}

// All returns every community in insertion order.
func (d *Directory) All() []Community {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Community, 0, len(d.communities))
	for _, c := range d.communities {
		out = append(out, c.clone())
	}
	return out
}

// Popular returns up to limit communities with the most members.
func (d *Directory) Popular(limit int) []Community {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}

	all := d.All()
	slices.SortStableFunc(all, func(a, b Community) int {
		return cmp.Compare(b.MemberCount, a.MemberCount)
	})
	return all[:min(limit, len(all))]
}

// ByID looks up a community by identifier.
func (d *Directory) ByID(id int64) (Community, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c := d.find(func(c *Community) bool { return c.ID == id })
	if c == nil {
		return Community{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return c.clone(), nil
}

// ByName looks up a community by name, ignoring case.
func (d *Directory) ByName(name string) (Community, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c := d.findByName(name)
	if c == nil {
		return Community{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return c.clone(), nil
}

// Join marks the community as joined. Joining twice changes nothing.
func (d *Directory) Join(name string) (Community, error) {
	return d.setJoined(name, true)
}

// Leave marks the community as not joined. Leaving twice changes nothing.
func (d *Directory) Leave(name string) (Community, error) {
	return d.setJoined(name, false)
}

func (d *Directory) setJoined(name string, joined bool) (Community, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := d.findByName(name)
	if c == nil {
		return Community{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if c.IsJoined == joined {
		return c.clone(), nil
	}

	c.IsJoined = joined
	if joined {
		c.MemberCount++
	} else if c.MemberCount > 0 {
		c.MemberCount--
	}
	return c.clone(), nil
}

// Joined returns the communities the user belongs to.
func (d *Directory) Joined() []Community {
	out := make([]Community, 0)
	for _, c := range d.All() {
		if c.IsJoined {
			out = append(out, c)
		}
	}
	return out
}

// Create adds a community owned by the current user.
func (d *Directory) Create(name, displayName, description string) (Community, error) {
	name = strings.TrimSpace(name)
	if !namePattern.MatchString(name) {
		return Community{}, fmt.Errorf("%w: name must be 3-21 letters, digits or underscores", ErrInvalidArgument)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.findByName(name) != nil {
		return Community{}, fmt.Errorf("%w: %q already exists", ErrInvalidArgument, name)
	}

	var maxID int64
	for _, c := range d.communities {
		maxID = max(maxID, c.ID)
	}

	if strings.TrimSpace(displayName) == "" {
		displayName = name
	}
	c := &Community{
		ID:          maxID + 1,
		Name:        name,
		DisplayName: strings.TrimSpace(displayName),
		Description: strings.TrimSpace(description),
		MemberCount: 1,
		IsJoined:    true,
		CreatedAt:   d.now(),
		Rules:       []string{},
	}
	d.communities = append(d.communities, c)
	return c.clone(), nil
}

func (d *Directory) findByName(name string) *Community {
	name = strings.TrimSpace(name)
	return d.find(func(c *Community) bool { return strings.EqualFold(c.Name, name) })
}

func (d *Directory) find(match func(*Community) bool) *Community {
	for _, c := range d.communities {
		if match(c) {
			return c
		}
	}
	return nil
}
