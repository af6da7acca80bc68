package main

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.einride.tech/aip/ordering"

	"github.com/Zachkp/resume-weblog/internal/blog"
	"github.com/Zachkp/resume-weblog/internal/feed"
	"github.com/Zachkp/resume-weblog/internal/i18n"
)

const (
	apiKeyHeader      = "apikey"
	orderByParam      = "order_by"
	feedBuffer        = 16
	heartbeatInterval = 30 * time.Second
)

// apiKeyMiddleware requires the access key in the apikey header. With no key
// configured every call is rejected.
func (s *server) apiKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(apiKeyHeader)
		if s.cfg.AccessKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.AccessKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}
		c.Next()
	}
}

// writeError maps a blog error to its status and JSON body.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, blog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, blog.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Blog storage is not configured"})
	case errors.Is(err, blog.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// orderFromQuery reads an AIP-132 ?order_by= such as "title" or
// "created_at desc". Listings sort by one field; none means newest first.
func orderFromQuery(c *gin.Context) (blog.Order, error) {
	var by ordering.OrderBy
	if err := by.UnmarshalString(c.Query(orderByParam)); err != nil {
		return blog.Order{}, fmt.Errorf("%w: %v", blog.ErrInvalid, err)
	}
	switch len(by.Fields) {
	case 0:
		return blog.NewestFirst, nil
	case 1:
		f := by.Fields[0]
		return blog.Order{Field: f.Path, Ascending: !f.Desc}, nil
	}
	return blog.Order{}, fmt.Errorf("%w: order by one field at most", blog.ErrInvalid)
}

func (s *server) handleListPosts(c *gin.Context) {
	order, err := orderFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	posts, err := s.blog.ListPosts(c.Request.Context(), blog.PostFilter{PublishedOnly: true}, order)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (s *server) handleSearchPosts(c *gin.Context) {
	posts, err := s.blog.SearchPosts(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// publishedPost hides drafts behind ErrNotFound.
func (s *server) publishedPost(c *gin.Context) (blog.Post, error) {
	post, err := s.blog.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		return blog.Post{}, err
	}
	if !post.Published {
		return blog.Post{}, blog.ErrNotFound
	}
	return post, nil
}

func (s *server) handleGetPost(c *gin.Context) {
	post, err := s.publishedPost(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *server) handleListComments(c *gin.Context) {
	post, err := s.publishedPost(c)
	if err != nil {
		writeError(c, err)
		return
	}
	comments, err := s.blog.ApprovedComments(c.Request.Context(), post.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

type commentRequest struct {
	AuthorName string `json:"author_name" form:"author_name"`
	Content    string `json:"content" form:"content"`
}

func (s *server) handleCreateComment(c *gin.Context) {
	post, err := s.publishedPost(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req commentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment"})
		return
	}
	comment, err := s.blog.CreateComment(c.Request.Context(), blog.Comment{
		PostID:     post.ID,
		AuthorName: req.AuthorName,
		Content:    req.Content,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"comment": comment,
		"message": "Thanks! Your comment will appear once it is approved.",
	})
}

func (s *server) handlePostPage(c *gin.Context) {
	tag := s.lang(c)
	post, err := s.publishedPost(c)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, blog.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, blog.ErrNotConfigured):
			status = http.StatusServiceUnavailable
		}
		c.HTML(status, "error.html", gin.H{"error": http.StatusText(status)})
		return
	}
	comments, err := s.blog.ApprovedComments(c.Request.Context(), post.ID)
	if err != nil {
		log.Printf("Error loading comments for post %s: %v", post.ID, err)
	}
	c.HTML(http.StatusOK, "post.html", gin.H{
		"post":      post,
		"comments":  comments,
		"lang":      tag.String(),
		"dir":       i18n.Dir(tag),
		"accessKey": s.cfg.AccessKey,
	})
}

// publicChange reports whether a change concerns a row readers can see:
// a published post or an approved comment, before or after the change.
func publicChange(ch feed.Change) bool {
	visible := func(row any) bool {
		switch r := row.(type) {
		case blog.Post:
			return r.Published
		case blog.Comment:
			return r.Approved
		}
		return false
	}
	return visible(ch.New) || visible(ch.Old)
}

// handleFeed streams public row changes of one table as server-sent
// events until the client goes away.
func (s *server) handleFeed(c *gin.Context) {
	table := c.Param("table")
	events := make(chan feed.Change, feedBuffer)
	sub, err := s.blog.Subscribe(table, func(ch feed.Change) {
		if !publicChange(ch) {
			return
		}
		select {
		case events <- ch:
		default:
			log.Printf("WARNING: dropping %s change for a slow subscriber", table)
		}
	})
	if err != nil {
		writeError(c, err)
		return
	}
	defer sub.Unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("subscribed", gin.H{"table": table})
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ch := <-events:
			c.SSEvent("change", ch)
			c.Writer.Flush()
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"at": s.now().UTC()})
			c.Writer.Flush()
		}
	}
}
