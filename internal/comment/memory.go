package comment

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryStore keeps comments in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	comments map[string]*Comment
	now      func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithNow sets the clock used for timestamps.
func WithNow(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		comments: make(map[string]*Comment),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(ctx context.Context, c *Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parent *Comment
	if c.ParentComment != "" {
		var ok bool
		if parent, ok = s.comments[c.ParentComment]; !ok {
			return ErrParentNotFound
		}
	}

	now := s.now().UTC()
	c.ID = bson.NewObjectID().Hex()
	c.CreatedAt, c.UpdatedAt = now, now
	c.IsEdited = false
	stored := c.clone()
	stored.Replies, stored.Likes = []string{}, []string{}
	s.comments[c.ID] = stored
	*c = *stored.clone()

	if parent != nil {
		parent.Replies = append(parent.Replies, c.ID)
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id, content string) (*Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Content = content
	c.IsEdited = true
	c.UpdatedAt = s.now().UTC()
	return c.clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return ErrNotFound
	}
	if parent, ok := s.comments[c.ParentComment]; ok {
		parent.Replies = slices.DeleteFunc(parent.Replies, func(r string) bool { return r == id })
	}
	for _, reply := range c.Replies {
		delete(s.comments, reply)
	}
	delete(s.comments, id)
	return nil
}

func (s *MemoryStore) Like(ctx context.Context, id, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if slices.Contains(c.Likes, userID) {
		return nil, ErrAlreadyLiked
	}
	c.Likes = slices.Insert(c.Likes, 0, userID)
	return slices.Clone(c.Likes), nil
}

func (s *MemoryStore) Unlike(ctx context.Context, id, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	i := slices.Index(c.Likes, userID)
	if i < 0 {
		return nil, ErrNotLiked
	}
	c.Likes = slices.Delete(c.Likes, i, i+1)
	return slices.Clone(c.Likes), nil
}

func (s *MemoryStore) ListReplies(ctx context.Context, id string, opts ListOptions) ([]*Comment, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.comments[id]; !ok {
		return nil, 0, ErrNotFound
	}

	var replies []*Comment
	for _, c := range s.comments {
		if c.ParentComment == id {
			replies = append(replies, c.clone())
		}
	}
	slices.SortFunc(replies, func(a, b *Comment) int {
		if n := a.CreatedAt.Compare(b.CreatedAt); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})

	total := int64(len(replies))
	return page(replies, opts), total, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

func page(items []*Comment, opts ListOptions) []*Comment {
	if opts.Skip > 0 {
		if opts.Skip >= len(items) {
			return []*Comment{}
		}
		items = items[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	if items == nil {
		return []*Comment{}
	}
	return items
}
