// Package dbtest provides an in-memory db.Posts for tests that do not need PostgreSQL.
package dbtest

import (
	"context"
	"sort"
	"sync"

	"posts-api/db"
	"posts-api/models"
)

// MemoryPosts keeps posts in a map and mimics the PostgreSQL store's
// sentinels. Err, when set, is returned by every call.
type MemoryPosts struct {
	mu     sync.Mutex
	posts  map[int64]models.Post
	nextID int64
	calls  map[string]int

	Err error
}

var _ db.Posts = (*MemoryPosts)(nil)

func NewMemoryPosts() *MemoryPosts {
	return &MemoryPosts{
		posts:  make(map[int64]models.Post),
		nextID: 1,
		calls:  make(map[string]int),
	}
}

// Calls returns how many times method was invoked.
func (m *MemoryPosts) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MemoryPosts) List(ctx context.Context) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["List"]++
	if m.Err != nil {
		return nil, m.Err
	}

	posts := make([]models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

func (m *MemoryPosts) GetByID(ctx context.Context, id int64) (models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetByID"]++
	if m.Err != nil {
		return models.Post{}, m.Err
	}

	p, ok := m.posts[id]
	if !ok {
		return models.Post{}, db.ErrNotFound
	}
	return p, nil
}

func (m *MemoryPosts) Create(ctx context.Context, in models.PostInput) (models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Create"]++
	if m.Err != nil {
		return models.Post{}, m.Err
	}

	p := models.Post{ID: m.nextID, UserID: in.UserID, PostTitle: in.PostTitle, PostBody: in.PostBody}
	m.posts[p.ID] = p
	m.nextID++
	return p, nil
}

func (m *MemoryPosts) Update(ctx context.Context, id int64, in models.PostInput) (models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Update"]++
	if m.Err != nil {
		return models.Post{}, m.Err
	}

	if _, ok := m.posts[id]; !ok {
		return models.Post{}, db.ErrNotFound
	}
	p := models.Post{ID: id, UserID: in.UserID, PostTitle: in.PostTitle, PostBody: in.PostBody}
	m.posts[id] = p
	return p, nil
}

func (m *MemoryPosts) Remove(ctx context.Context, id int64) (models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Remove"]++
	if m.Err != nil {
		return models.Post{}, m.Err
	}

	p, ok := m.posts[id]
	if !ok {
		return models.Post{}, db.ErrNotFound
	}
	delete(m.posts, id)
	return p, nil
}
