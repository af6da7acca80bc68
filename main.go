package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/Zachkp/resume-weblog/internal/blog"
	"github.com/Zachkp/resume-weblog/internal/blog/sqlite"
	"github.com/Zachkp/resume-weblog/internal/config"
	"github.com/Zachkp/resume-weblog/internal/feed"
	"github.com/Zachkp/resume-weblog/internal/i18n"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		log.Printf("WARNING: %s", w)
	}

	content, err := LoadContent(cfg.ContentPath)
	if err != nil {
		return err
	}

	var (
		posts    blog.Store
		visitors visitorLog
	)
	if cfg.StoreURL != "" {
		store, err := sqlite.Open(cfg.StoreURL)
		if err != nil {
			log.Printf("WARNING: could not open store %s: %v", cfg.StoreURL, err)
		} else {
			defer store.Close()
			posts, visitors = store, store
		}
	}

	svc := blog.NewService(posts, feed.NewHub(nil), nil)
	if svc.Configured() {
		if _, err := svc.Ping(context.Background()); err != nil {
			log.Printf("WARNING: store connection check failed: %v", err)
		}
	}

	s := newServer(cfg, content, svc, visitors, newSMTPMailer(cfg))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Println(banner(cfg))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Println("Shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		s.purgeVisitorsEvery(ctx, 24*time.Hour)
		return nil
	})

	err = g.Wait()
	s.visits.Wait()
	return err
}

// server holds what the handlers share.
type server struct {
	cfg         config.Config
	content     *Content
	blog        *blog.Service
	visitors    visitorLog
	mailer      Mailer
	defaultLang language.Tag

	secret      []byte
	hashingSalt string
	now         func() time.Time
	visits      sync.WaitGroup
}

func newServer(cfg config.Config, content *Content, svc *blog.Service, visitors visitorLog, mailer Mailer) *server {
	fallback, ok := i18n.Parse(cfg.DefaultLang)
	if !ok {
		log.Printf("WARNING: unsupported WEBLOG_DEFAULT_LANG %q, using English", cfg.DefaultLang)
		fallback = language.English
	}
	secret := []byte(cfg.AdminSecret)
	if len(secret) == 0 {
		secret = []byte(generateAdminToken())
	}
	return &server{
		cfg:         cfg,
		content:     content,
		blog:        svc,
		visitors:    visitors,
		mailer:      mailer,
		defaultLang: fallback,
		secret:      secret,
		hashingSalt: generateAdminToken(),
		now:         time.Now,
	}
}

// lang picks the page language from ?lang=, then Accept-Language.
func (s *server) lang(c *gin.Context) language.Tag {
	return i18n.Resolve(c.Query(i18n.LangParam), c.GetHeader("Accept-Language"), s.defaultLang)
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
	"excerpt": excerpt,
}

// excerpt cuts s to at most n runes, ending with an ellipsis when cut.
func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

func newRouter(s *server) *gin.Engine {
	r := gin.Default()
	r.SetFuncMap(templateFuncs)
	r.LoadHTMLGlob("templates/*")

	r.Static("/images", "./images")
	r.Static("/static", "./static")

	r.Use(s.visitorTrackingMiddleware())

	// Home page route
	r.GET("/", s.handleIndex)

	r.GET("/work-content", func(c *gin.Context) {
		c.HTML(http.StatusOK, "work-content.html", gin.H{
			"experiences": s.content.Work,
		})
	})

	r.GET("/education-content", func(c *gin.Context) {
		c.HTML(http.StatusOK, "education-content.html", gin.H{
			"experiences": s.content.Education,
		})
	})

	r.GET("/posts/:id", s.handlePostPage)
	r.GET("/contact/qr.png", s.handleContactQR)
	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	api.Use(s.apiKeyMiddleware())
	{
		api.GET("/posts", s.handleListPosts)
		api.GET("/posts/search", s.handleSearchPosts)
		api.GET("/posts/:id", s.handleGetPost)
		api.GET("/posts/:id/comments", s.handleListComments)
		api.POST("/posts/:id/comments", s.handleCreateComment)
		api.POST("/contact", s.handleContact)
		api.GET("/feed/:table", s.handleFeed)
	}

	s.setupAdminRoutes(r)
	return r
}

func (s *server) handleIndex(c *gin.Context) {
	tag := s.lang(c)
	var recent []blog.PostSummary
	if s.blog.Configured() {
		var err error
		recent, err = s.blog.RecentPosts(c.Request.Context(), s.cfg.RecentPosts)
		if err != nil {
			log.Printf("Error loading recent posts: %v", err)
		}
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"content":   s.content,
		"posts":     recent,
		"lang":      tag.String(),
		"dir":       i18n.Dir(tag),
		"year":      i18n.Year(tag, s.now().Year()),
		"accessKey": s.cfg.AccessKey,
	})
}

func (s *server) handleHealth(c *gin.Context) {
	n, err := s.blog.Ping(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "posts": n})
}
