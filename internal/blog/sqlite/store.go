// Package sqlite is the SQLite-backed blog.Store, plus the visitor log the
// admin pages read.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zachkp/resume-weblog/internal/blog"
	"github.com/Zachkp/resume-weblog/internal/blog/sqlite/migrations"
	_ "modernc.org/sqlite"
)

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Store persists posts, comments and visitors in one SQLite file.
type Store struct {
	db *sql.DB
}

var _ blog.Store = (*Store)(nil)

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Open opens the store at url, either a file path or a "file:" URL, and
// applies the embedded migrations.
func Open(url string) (*Store, error) {
	path := strings.TrimSpace(url)
	path = strings.TrimPrefix(path, "file://")
	path = strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(path, '?'); i != -1 {
		path = path[:i]
	}
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	db, err := sql.Open("sqlite", filepath.Clean(path)+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrate(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return blog.ErrNotConfigured
	}
	return nil
}

const postColumns = `id, created_at, title, content, author, published`

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (blog.Post, error) {
	var p blog.Post
	var created int64
	if err := row.Scan(&p.ID, &created, &p.Title, &p.Content, &p.Author, &p.Published); err != nil {
		return blog.Post{}, err
	}
	p.CreatedAt = fromMillis(created)
	return p, nil
}

func collectPosts(rows *sql.Rows) ([]blog.Post, error) {
	defer rows.Close()
	posts := []blog.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// orderClause maps a blog.Order to SQL. Ties fall back to insertion order in
// the same direction.
func orderClause(o blog.Order, columns map[string]string) (string, error) {
	field, ok := o.Column()
	if !ok {
		return "", fmt.Errorf("%w: cannot order by %q", blog.ErrInvalid, o.Field)
	}
	column, ok := columns[field]
	if !ok {
		return "", fmt.Errorf("%w: cannot order by %q", blog.ErrInvalid, o.Field)
	}
	dir := "DESC"
	if o.Ascending {
		dir = "ASC"
	}
	return " ORDER BY " + column + " " + dir + ", rowid " + dir, nil
}

var postOrder = map[string]string{
	blog.FieldCreatedAt: "created_at",
	blog.FieldTitle:     "title COLLATE NOCASE",
	blog.FieldAuthor:    "author COLLATE NOCASE",
}

func (s *Store) ListPosts(ctx context.Context, filter blog.PostFilter, order blog.Order) ([]blog.Post, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	orderBy, err := orderClause(order, postOrder)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + postColumns + ` FROM posts`
	if filter.PublishedOnly {
		query += ` WHERE published = 1`
	}
	rows, err := s.db.QueryContext(ctx, query+orderBy)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return collectPosts(rows)
}

func (s *Store) GetPost(ctx context.Context, id string) (blog.Post, error) {
	if err := s.check(ctx); err != nil {
		return blog.Post{}, err
	}
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return blog.Post{}, blog.ErrNotFound
	}
	if err != nil {
		return blog.Post{}, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

func (s *Store) InsertPost(ctx context.Context, p blog.Post) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, toMillis(p.CreatedAt), p.Title, p.Content, p.Author, p.Published,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (s *Store) UpdatePost(ctx context.Context, p blog.Post) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ?, author = ?, published = ? WHERE id = ?`,
		p.Title, p.Content, p.Author, p.Published, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return affected(res)
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return affected(res)
}

// SearchPosts matches text literally; LIKE wildcards in it are escaped.
func (s *Store) SearchPosts(ctx context.Context, text string) ([]blog.Post, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	pattern := "%" + escapeLike(text) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		  WHERE published = 1
		    AND (title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')
		  ORDER BY created_at DESC, rowid DESC`,
		pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return collectPosts(rows)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *Store) RecentPosts(ctx context.Context, limit int) ([]blog.PostSummary, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.created_at, p.title, p.content, p.author, p.published,
		        (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id AND c.approved = 1)
		   FROM posts p
		  WHERE p.published = 1
		  ORDER BY p.created_at DESC, p.rowid DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent posts: %w", err)
	}
	defer rows.Close()

	out := []blog.PostSummary{}
	for rows.Next() {
		var sum blog.PostSummary
		var created int64
		if err := rows.Scan(&sum.ID, &created, &sum.Title, &sum.Content, &sum.Author, &sum.Published, &sum.Comments); err != nil {
			return nil, fmt.Errorf("scan recent post: %w", err)
		}
		sum.CreatedAt = fromMillis(created)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent posts: %w", err)
	}
	return out, nil
}

func (s *Store) CountPosts(ctx context.Context) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

const commentColumns = `id, created_at, post_id, author_name, content, approved`

var commentOrder = map[string]string{
	blog.FieldCreatedAt: "created_at",
	blog.FieldAuthor:    "author_name COLLATE NOCASE",
}

func scanComment(row scanner) (blog.Comment, error) {
	var c blog.Comment
	var created int64
	if err := row.Scan(&c.ID, &created, &c.PostID, &c.AuthorName, &c.Content, &c.Approved); err != nil {
		return blog.Comment{}, err
	}
	c.CreatedAt = fromMillis(created)
	return c, nil
}

func (s *Store) ListComments(ctx context.Context, filter blog.CommentFilter, order blog.Order) ([]blog.Comment, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	orderBy, err := orderClause(order, commentOrder)
	if err != nil {
		return nil, err
	}
	var where []string
	var args []any
	if filter.PostID != "" {
		where = append(where, "post_id = ?")
		args = append(args, filter.PostID)
	}
	if filter.ApprovedOnly {
		where = append(where, "approved = 1")
	}
	query := `SELECT ` + commentColumns + ` FROM comments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	rows, err := s.db.QueryContext(ctx, query+orderBy, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []blog.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

func (s *Store) GetComment(ctx context.Context, id string) (blog.Comment, error) {
	if err := s.check(ctx); err != nil {
		return blog.Comment{}, err
	}
	c, err := scanComment(s.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return blog.Comment{}, blog.ErrNotFound
	}
	if err != nil {
		return blog.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

func (s *Store) InsertComment(ctx context.Context, c blog.Comment) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (`+commentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, toMillis(c.CreatedAt), c.PostID, c.AuthorName, c.Content, c.Approved,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *Store) UpdateComment(ctx context.Context, c blog.Comment) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE comments SET content = ?, approved = ? WHERE id = ?`,
		c.Content, c.Approved, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return affected(res)
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return blog.ErrNotFound
	}
	return nil
}
