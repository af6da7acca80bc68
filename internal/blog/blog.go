// Package blog holds the weblog's posts and moderated comments and the
// service that reads and writes them through a Store.
package blog

import (
	"context"
	"errors"
	"time"
)

// Table names, as published on the change feed.
const (
	TablePosts    = "posts"
	TableComments = "comments"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotConfigured indicates no store is wired in.
	ErrNotConfigured = errors.New("store is not configured")
	// ErrInvalid wraps every input validation failure.
	ErrInvalid = errors.New("invalid input")
)

type Post struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Published bool      `json:"published"`
}

type Comment struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	PostID     string    `json:"post_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Approved   bool      `json:"approved"`
}

// PostPatch is a partial post update. Nil fields are left unchanged.
type PostPatch struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Author    *string `json:"author,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Author == nil && p.Published == nil
}

func (p PostPatch) apply(post Post) Post {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Author != nil {
		post.Author = *p.Author
	}
	if p.Published != nil {
		post.Published = *p.Published
	}
	return post
}

// CommentPatch is a partial comment update. Nil fields are left unchanged.
type CommentPatch struct {
	Content  *string `json:"content,omitempty"`
	Approved *bool   `json:"approved,omitempty"`
}

func (p CommentPatch) Empty() bool {
	return p.Content == nil && p.Approved == nil
}

func (p CommentPatch) apply(c Comment) Comment {
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.Approved != nil {
		c.Approved = *p.Approved
	}
	return c
}

type PostFilter struct {
	PublishedOnly bool
}

// CommentFilter selects comments. An empty PostID matches every post.
type CommentFilter struct {
	PostID       string
	ApprovedOnly bool
}

// Order sorts a listing by one column. The zero value is newest first.
type Order struct {
	Field     string
	Ascending bool
}

// Sortable columns.
const (
	FieldCreatedAt = "created_at"
	FieldTitle     = "title"
	FieldAuthor    = "author"
)

// NewestFirst is the default listing order.
var NewestFirst = Order{Field: FieldCreatedAt}

// Column returns the order's column, defaulting to created_at, and whether
// the requested field is sortable at all.
func (o Order) Column() (string, bool) {
	switch o.Field {
	case "":
		return FieldCreatedAt, true
	case FieldCreatedAt, FieldTitle, FieldAuthor:
		return o.Field, true
	}
	return "", false
}

// PostSummary is a published post with its approved comment count.
type PostSummary struct {
	Post
	Comments int `json:"comment_count"`
}

// Store persists posts and comments.
type Store interface {
	ListPosts(ctx context.Context, filter PostFilter, order Order) ([]Post, error)
	GetPost(ctx context.Context, id string) (Post, error)
	InsertPost(ctx context.Context, post Post) error
	UpdatePost(ctx context.Context, post Post) error
	DeletePost(ctx context.Context, id string) error
	SearchPosts(ctx context.Context, text string) ([]Post, error)
	RecentPosts(ctx context.Context, limit int) ([]PostSummary, error)
	CountPosts(ctx context.Context) (int, error)

	ListComments(ctx context.Context, filter CommentFilter, order Order) ([]Comment, error)
	GetComment(ctx context.Context, id string) (Comment, error)
	InsertComment(ctx context.Context, comment Comment) error
	UpdateComment(ctx context.Context, comment Comment) error
	DeleteComment(ctx context.Context, id string) error
}
