package agent

import (
	"sort"
	"sync"
	"time"

	"github.com/ifuryst/postpilot/internal/models"
)

// postCache is the agent's local view of the server's posts. The server
// snapshot that arrives last wins.
type postCache struct {
	mu    sync.RWMutex
	posts map[string]models.Post
	// stale marks posts changed locally without a server confirmation.
	stale map[string]bool
}

func newPostCache() *postCache {
	return &postCache{
		posts: make(map[string]models.Post),
		stale: make(map[string]bool),
	}
}

func (c *postCache) put(post models.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts[post.ID] = post
	delete(c.stale, post.ID)
}

func (c *postCache) replace(posts []models.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = make(map[string]models.Post, len(posts))
	c.stale = make(map[string]bool)
	for _, p := range posts {
		c.posts[p.ID] = p
	}
}

func (c *postCache) remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.posts[id]
	delete(c.posts, id)
	delete(c.stale, id)
	return ok
}

func (c *postCache) get(id string) (models.Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.posts[id]
	return p, ok
}

func (c *postCache) setStatus(id string, status models.PostStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.posts[id]; ok {
		p.Status = status
		c.posts[id] = p
	}
}

func (c *postCache) markRescheduled(post models.Post, at time.Time) models.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.posts[post.ID]; ok {
		post = cached
	}
	if post.OriginalScheduledTime == nil {
		post.OriginalScheduledTime = post.ScheduledTime
	}
	post.ScheduledTime = &at
	post.Status = models.PostStatusRescheduled
	c.posts[post.ID] = post
	c.stale[post.ID] = true
	return post
}

func (c *postCache) isStale(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale[id]
}

// list returns the posts ordered by scheduled time, unscheduled last.
func (c *postCache) list() []models.Post {
	c.mu.RLock()
	posts := make([]models.Post, 0, len(c.posts))
	for _, p := range c.posts {
		posts = append(posts, p)
	}
	c.mu.RUnlock()

	sort.Slice(posts, func(i, j int) bool {
		a, b := posts[i].ScheduledTime, posts[j].ScheduledTime
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return posts
}
