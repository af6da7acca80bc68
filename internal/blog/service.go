package blog

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Zachkp/resume-weblog/internal/feed"
	"github.com/google/uuid"
)

// Input limits, in runes.
const (
	MaxTitle   = 200
	MaxAuthor  = 100
	MaxComment = 2000
)

// Service is the weblog's data access layer. Every call logs its failure and
// returns it; none panics.
type Service struct {
	store  Store
	hub    *feed.Hub
	logger *log.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs overrides the row id generator.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService wires a store and change hub. A nil store is allowed: every
// call then fails with ErrNotConfigured. A nil hub gets a private one.
func NewService(store Store, hub *feed.Hub, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if hub == nil {
		hub = feed.NewHub(logger)
	}
	s := &Service{
		store:  store,
		hub:    hub,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether a store is wired in.
func (s *Service) Configured() bool { return s.store != nil }

func (s *Service) ready() error {
	if s.store == nil {
		s.logger.Printf("Error: %v", ErrNotConfigured)
		return ErrNotConfigured
	}
	return nil
}

func (s *Service) fail(action string, err error) error {
	s.logger.Printf("Error %s: %v", action, err)
	return err
}

func (s *Service) ListPosts(ctx context.Context, filter PostFilter, order Order) ([]Post, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, ok := order.Column(); !ok {
		return nil, s.fail("fetching posts", fmt.Errorf("%w: cannot order by %q", ErrInvalid, order.Field))
	}
	posts, err := s.store.ListPosts(ctx, filter, order)
	if err != nil {
		return nil, s.fail("fetching posts", err)
	}
	s.logger.Printf("Fetched %d posts", len(posts))
	return posts, nil
}

// PublishedPosts lists published posts, newest first.
func (s *Service) PublishedPosts(ctx context.Context) ([]Post, error) {
	return s.ListPosts(ctx, PostFilter{PublishedOnly: true}, NewestFirst)
}

func (s *Service) GetPost(ctx context.Context, id string) (Post, error) {
	if err := s.ready(); err != nil {
		return Post{}, err
	}
	post, err := s.store.GetPost(ctx, strings.TrimSpace(id))
	if err != nil {
		return Post{}, s.fail("fetching post "+id, err)
	}
	return post, nil
}

// CreatePost assigns the id and creation time and stores the post.
func (s *Service) CreatePost(ctx context.Context, post Post) (Post, error) {
	if err := s.ready(); err != nil {
		return Post{}, err
	}
	post.Title = strings.TrimSpace(post.Title)
	post.Author = strings.TrimSpace(post.Author)
	if err := validatePost(post); err != nil {
		return Post{}, s.fail("creating post", err)
	}
	post.ID = s.newID()
	post.CreatedAt = s.now()
	if err := s.store.InsertPost(ctx, post); err != nil {
		return Post{}, s.fail("creating post", err)
	}
	s.logger.Printf("Post created: %s", post.Title)
	s.publish(TablePosts, feed.Insert, post, nil)
	return post, nil
}

func (s *Service) UpdatePost(ctx context.Context, id string, patch PostPatch) (Post, error) {
	if err := s.ready(); err != nil {
		return Post{}, err
	}
	if patch.Empty() {
		return Post{}, s.fail("updating post", fmt.Errorf("%w: nothing to update", ErrInvalid))
	}
	old, err := s.store.GetPost(ctx, strings.TrimSpace(id))
	if err != nil {
		return Post{}, s.fail("updating post "+id, err)
	}
	post := patch.apply(old)
	post.Title = strings.TrimSpace(post.Title)
	post.Author = strings.TrimSpace(post.Author)
	if err := validatePost(post); err != nil {
		return Post{}, s.fail("updating post "+id, err)
	}
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return Post{}, s.fail("updating post "+id, err)
	}
	s.logger.Printf("Post updated: %s", post.Title)
	s.publish(TablePosts, feed.Update, post, old)
	return post, nil
}

// DeletePost removes a post and, with it, its comments.
func (s *Service) DeletePost(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	old, err := s.store.GetPost(ctx, strings.TrimSpace(id))
	if err != nil {
		return s.fail("deleting post "+id, err)
	}
	if err := s.store.DeletePost(ctx, old.ID); err != nil {
		return s.fail("deleting post "+id, err)
	}
	s.logger.Printf("Post deleted: %s", old.ID)
	s.publish(TablePosts, feed.Delete, nil, old)
	return nil
}

// SearchPosts matches published posts whose title or content contains text,
// case-insensitively, newest first. Blank text lists every published post.
func (s *Service) SearchPosts(ctx context.Context, text string) ([]Post, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return s.PublishedPosts(ctx)
	}
	posts, err := s.store.SearchPosts(ctx, text)
	if err != nil {
		return nil, s.fail("searching posts", err)
	}
	s.logger.Printf("Search %q matched %d posts", text, len(posts))
	return posts, nil
}

// RecentPosts returns up to limit published posts with their approved
// comment counts.
func (s *Service) RecentPosts(ctx context.Context, limit int) ([]PostSummary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, s.fail("fetching recent posts", fmt.Errorf("%w: limit must be positive", ErrInvalid))
	}
	posts, err := s.store.RecentPosts(ctx, limit)
	if err != nil {
		return nil, s.fail("fetching recent posts", err)
	}
	return posts, nil
}

// Ping checks the store connection and returns the post count.
func (s *Service) Ping(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	n, err := s.store.CountPosts(ctx)
	if err != nil {
		return 0, s.fail("connecting to store", err)
	}
	s.logger.Printf("Store connection OK (%d posts)", n)
	return n, nil
}

func (s *Service) ListComments(ctx context.Context, filter CommentFilter, order Order) ([]Comment, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, ok := order.Column(); !ok || order.Field == FieldTitle {
		return nil, s.fail("fetching comments", fmt.Errorf("%w: cannot order by %q", ErrInvalid, order.Field))
	}
	comments, err := s.store.ListComments(ctx, filter, order)
	if err != nil {
		return nil, s.fail("fetching comments", err)
	}
	s.logger.Printf("Fetched %d comments", len(comments))
	return comments, nil
}

// ApprovedComments lists a post's approved comments, newest first.
func (s *Service) ApprovedComments(ctx context.Context, postID string) ([]Comment, error) {
	return s.ListComments(ctx, CommentFilter{PostID: postID, ApprovedOnly: true}, NewestFirst)
}

// CreateComment stores a comment on an existing post. New comments always
// wait for approval.
func (s *Service) CreateComment(ctx context.Context, comment Comment) (Comment, error) {
	if err := s.ready(); err != nil {
		return Comment{}, err
	}
	comment.PostID = strings.TrimSpace(comment.PostID)
	comment.AuthorName = strings.TrimSpace(comment.AuthorName)
	comment.Approved = false
	if err := validateComment(comment); err != nil {
		return Comment{}, s.fail("creating comment", err)
	}
	if _, err := s.store.GetPost(ctx, comment.PostID); err != nil {
		return Comment{}, s.fail("creating comment", err)
	}
	comment.ID = s.newID()
	comment.CreatedAt = s.now()
	if err := s.store.InsertComment(ctx, comment); err != nil {
		return Comment{}, s.fail("creating comment", err)
	}
	s.logger.Printf("Comment created on post %s", comment.PostID)
	s.publish(TableComments, feed.Insert, comment, nil)
	return comment, nil
}

func (s *Service) UpdateComment(ctx context.Context, id string, patch CommentPatch) (Comment, error) {
	if err := s.ready(); err != nil {
		return Comment{}, err
	}
	if patch.Empty() {
		return Comment{}, s.fail("updating comment", fmt.Errorf("%w: nothing to update", ErrInvalid))
	}
	old, err := s.store.GetComment(ctx, strings.TrimSpace(id))
	if err != nil {
		return Comment{}, s.fail("updating comment "+id, err)
	}
	comment := patch.apply(old)
	if err := validateComment(comment); err != nil {
		return Comment{}, s.fail("updating comment "+id, err)
	}
	if err := s.store.UpdateComment(ctx, comment); err != nil {
		return Comment{}, s.fail("updating comment "+id, err)
	}
	s.publish(TableComments, feed.Update, comment, old)
	return comment, nil
}

// ApproveComment publishes a pending comment.
func (s *Service) ApproveComment(ctx context.Context, id string) (Comment, error) {
	approved := true
	return s.UpdateComment(ctx, id, CommentPatch{Approved: &approved})
}

func (s *Service) DeleteComment(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	old, err := s.store.GetComment(ctx, strings.TrimSpace(id))
	if err != nil {
		return s.fail("deleting comment "+id, err)
	}
	if err := s.store.DeleteComment(ctx, old.ID); err != nil {
		return s.fail("deleting comment "+id, err)
	}
	s.publish(TableComments, feed.Delete, nil, old)
	return nil
}

// Subscribe registers onChange for every INSERT, UPDATE and DELETE on table.
// The caller owns the subscription and must unsubscribe it.
func (s *Service) Subscribe(table string, onChange func(feed.Change)) (*feed.Subscription, error) {
	switch table {
	case TablePosts, TableComments:
	default:
		return nil, fmt.Errorf("%w: unknown table %q", ErrInvalid, table)
	}
	return s.hub.Subscribe(table, onChange), nil
}

func (s *Service) publish(table string, kind feed.EventType, newRow, oldRow any) {
	s.hub.Publish(feed.Change{Table: table, Type: kind, New: newRow, Old: oldRow, At: s.now()})
}

func validatePost(p Post) error {
	switch {
	case p.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalid)
	case utf8.RuneCountInString(p.Title) > MaxTitle:
		return fmt.Errorf("%w: title is longer than %d characters", ErrInvalid, MaxTitle)
	case strings.TrimSpace(p.Content) == "":
		return fmt.Errorf("%w: content is required", ErrInvalid)
	case p.Author == "":
		return fmt.Errorf("%w: author is required", ErrInvalid)
	case utf8.RuneCountInString(p.Author) > MaxAuthor:
		return fmt.Errorf("%w: author is longer than %d characters", ErrInvalid, MaxAuthor)
	}
	return nil
}

func validateComment(c Comment) error {
	switch {
	case c.PostID == "":
		return fmt.Errorf("%w: post id is required", ErrInvalid)
	case c.AuthorName == "":
		return fmt.Errorf("%w: author name is required", ErrInvalid)
	case utf8.RuneCountInString(c.AuthorName) > MaxAuthor:
		return fmt.Errorf("%w: author name is longer than %d characters", ErrInvalid, MaxAuthor)
	case strings.TrimSpace(c.Content) == "":
		return fmt.Errorf("%w: content is required", ErrInvalid)
	case utf8.RuneCountInString(c.Content) > MaxComment:
		return fmt.Errorf("%w: comment is longer than %d characters", ErrInvalid, MaxComment)
	}
	return nil
}
