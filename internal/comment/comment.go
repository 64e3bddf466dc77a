package comment

import (
	"context"
	"errors"
	"slices"
	"time"
)

// MaxContentLength is the longest comment body accepted.
const MaxContentLength = 500

var (
	ErrNotFound       = errors.New("comment not found")
	ErrParentNotFound = errors.New("parent comment not found")
	ErrAlreadyLiked   = errors.New("comment already liked")
	ErrNotLiked       = errors.New("comment has not yet been liked")
)

// Comment is a comment on a post, optionally a reply to another comment.
// Likes are user ids, most recent first.
type Comment struct {
	ID            string    `json:"_id" bson:"_id"`
	Content       string    `json:"content" bson:"content"`
	Author        string    `json:"author" bson:"author"`
	Post          string    `json:"post" bson:"post"`
	ParentComment string    `json:"parentComment,omitempty" bson:"parentComment,omitempty"`
	Replies       []string  `json:"replies" bson:"replies"`
	Likes         []string  `json:"likes" bson:"likes"`
	IsEdited      bool      `json:"isEdited" bson:"isEdited"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (c *Comment) clone() *Comment {
	cp := *c
	cp.Replies = slices.Clone(c.Replies)
	cp.Likes = slices.Clone(c.Likes)
	if cp.Replies == nil {
		cp.Replies = []string{}
	}
	if cp.Likes == nil {
		cp.Likes = []string{}
	}
	return &cp
}

// ListOptions pages through replies. A zero Limit returns everything.
type ListOptions struct {
	Skip  int
	Limit int
}

// Store persists comments. Implementations are safe for concurrent use.
type Store interface {
	// Create assigns the id and timestamps of c, stores it and links it to
	// its parent. Returns ErrParentNotFound for a dangling parent.
	Create(ctx context.Context, c *Comment) error
	Get(ctx context.Context, id string) (*Comment, error)
	// Update replaces the content and marks the comment edited.
	Update(ctx context.Context, id, content string) (*Comment, error)
	// Delete removes the comment and its direct replies and unlinks it from
	// its parent.
	Delete(ctx context.Context, id string) error
	// Like prepends userID to the likes and returns them.
	Like(ctx context.Context, id, userID string) ([]string, error)
	// Unlike removes userID from the likes and returns them.
	Unlike(ctx context.Context, id, userID string) ([]string, error)
	// ListReplies returns replies of id oldest first, with the total count.
	ListReplies(ctx context.Context, id string, opts ListOptions) ([]*Comment, int64, error)
	Ping(ctx context.Context) error
}
