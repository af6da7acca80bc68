// admin.go - Complete privacy-conscious admin system
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Zachkp/resume-weblog/internal/blog"
	"github.com/Zachkp/resume-weblog/internal/blog/sqlite"
)

const (
	sessionCookie = "admin_token"
	sessionIssuer = "resume-weblog"
	adminListSize = 50
	visitorsPage  = 200
)

// visitorLog is the privacy-conscious visit store.
type visitorLog interface {
	RecordVisit(ctx context.Context, v sqlite.Visitor) error
	VisitorStats(ctx context.Context, now time.Time) (sqlite.VisitorStats, error)
	RecentVisitors(ctx context.Context, limit int) ([]sqlite.Visitor, error)
	PurgeVisitorsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type AdminStats struct {
	sqlite.VisitorStats
	TotalPosts      int              `json:"total_posts"`
	PublishedPosts  int              `json:"published_posts"`
	PendingComments []blog.Comment   `json:"pending_comments"`
	Posts           []blog.Post      `json:"posts"`
	RecentVisitors  []sqlite.Visitor `json:"recent_visitors"`
}

func generateAdminToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatal("Failed to generate admin token:", err)
	}
	return hex.EncodeToString(bytes)
}

// Hash IP address for privacy compliance (consistent per IP)
func (s *server) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + s.hashingSalt))
	return hex.EncodeToString(hash.Sum(nil))[:16] // Truncate for storage efficiency
}

// issueSession signs an HS256 admin session for username.
func (s *server) issueSession(username string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// verifySession checks signature, issuer, expiry and subject of a session.
func (s *server) verifySession(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", err
	}
	if subtle.ConstantTimeCompare([]byte(claims.Subject), []byte(s.cfg.AdminUsername)) != 1 {
		return "", errors.New("session subject is not the admin")
	}
	return claims.Subject, nil
}

// Middleware to check admin authentication
func (s *server) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err == nil {
			_, err = s.verifySession(token)
		}
		if err != nil {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Privacy-conscious visitor tracking middleware
func (s *server) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.visitors == nil {
			c.Next()
			return
		}

		// Skip tracking for static files, admin pages and the API
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/static/") ||
			strings.HasPrefix(path, "/images/") ||
			strings.HasPrefix(path, "/admin/") ||
			strings.HasPrefix(path, "/api/") ||
			strings.HasPrefix(path, "/favicon") ||
			strings.HasPrefix(path, "/privacy") ||
			path == "/healthz" {
			c.Next()
			return
		}

		// Respect Do Not Track header
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		// Track visitor with hashed IP in background
		v := sqlite.Visitor{
			HashedIP:  s.hashIP(c.ClientIP()),
			UserAgent: c.GetHeader("User-Agent"),
			Path:      path,
			VisitedAt: s.now(),
		}
		s.visits.Add(1)
		go s.trackVisitorPrivacy(v)
		c.Next()
	}
}

func (s *server) trackVisitorPrivacy(v sqlite.Visitor) {
	defer s.visits.Done()
	if err := s.visitors.RecordVisit(context.Background(), v); err != nil {
		log.Printf("Error recording visitor: %v", err)
	}
}

// Cleanup old visitor data for privacy compliance
func (s *server) cleanupOldVisitorData(ctx context.Context) {
	if s.visitors == nil {
		return
	}
	rowsDeleted, err := s.visitors.PurgeVisitorsBefore(ctx, s.now().Add(-s.cfg.VisitorRetention))
	if err != nil {
		log.Printf("Error cleaning up old visitor data: %v", err)
		return
	}
	if rowsDeleted > 0 {
		log.Printf("Privacy cleanup: Removed %d visitor records older than %v", rowsDeleted, s.cfg.VisitorRetention)
	}
}

// purgeVisitorsEvery runs the retention cleanup now and then every interval
// until ctx ends.
func (s *server) purgeVisitorsEvery(ctx context.Context, interval time.Duration) {
	s.cleanupOldVisitorData(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.cleanupOldVisitorData(ctx)
		}
	}
}

// Get comprehensive admin statistics
func (s *server) getAdminStats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}

	if s.visitors != nil {
		vs, err := s.visitors.VisitorStats(ctx, s.now())
		if err != nil {
			return nil, err
		}
		stats.VisitorStats = vs
		if stats.RecentVisitors, err = s.visitors.RecentVisitors(ctx, adminListSize); err != nil {
			return nil, err
		}
	}

	if !s.blog.Configured() {
		return stats, nil
	}
	posts, err := s.blog.ListPosts(ctx, blog.PostFilter{}, blog.NewestFirst)
	if err != nil {
		return nil, err
	}
	stats.Posts = posts
	stats.TotalPosts = len(posts)
	for _, p := range posts {
		if p.Published {
			stats.PublishedPosts++
		}
	}
	comments, err := s.blog.ListComments(ctx, blog.CommentFilter{}, blog.NewestFirst)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		if !c.Approved {
			stats.PendingComments = append(stats.PendingComments, c)
		}
	}
	return stats, nil
}

// Setup all admin routes
func (s *server) setupAdminRoutes(r *gin.Engine) {
	// Privacy policy route
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title": "Privacy Policy",
		})
	})

	// Admin login page
	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	// Admin login handler
	r.POST("/admin/login", func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")

		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.AdminUsername)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1
		if !userOK || !passOK {
			log.Printf("Failed admin login attempt from %s", s.hashIP(c.ClientIP()))
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		token, err := s.issueSession(username)
		if err != nil {
			log.Printf("Error signing admin session: %v", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to start session",
			})
			return
		}
		secure := strings.HasPrefix(s.cfg.PublicURL, "https://")
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(sessionCookie, token, int(s.cfg.SessionTTL.Seconds()), "/admin", "", secure, true)
		log.Printf("Admin login successful from %s", s.hashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	// Admin logout
	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(sessionCookie, "", -1, "/admin", "", false, true)
		log.Printf("Admin logout from %s", s.hashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/login")
	})

	// Protected admin routes group
	adminGroup := r.Group("/admin")
	adminGroup.Use(s.adminAuthMiddleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.getAdminStats(c.Request.Context())
		if err != nil {
			log.Printf("Error loading admin stats: %v", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}

		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats":      stats,
			"configured": s.blog.Configured(),
		})
	})

	// Admin API endpoints for HTMX/AJAX
	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.getAdminStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	adminGroup.GET("/api/posts", func(c *gin.Context) {
		order, err := orderFromQuery(c)
		if err != nil {
			writeError(c, err)
			return
		}
		posts, err := s.blog.ListPosts(c.Request.Context(), blog.PostFilter{}, order)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, posts)
	})

	adminGroup.POST("/api/posts", func(c *gin.Context) {
		var in blog.Post
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post"})
			return
		}
		post, err := s.blog.CreatePost(c.Request.Context(), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, post)
	})

	adminGroup.PATCH("/api/posts/:id", func(c *gin.Context) {
		var patch blog.PostPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post update"})
			return
		}
		post, err := s.blog.UpdatePost(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	})

	adminGroup.DELETE("/api/posts/:id", func(c *gin.Context) {
		id := c.Param("id")
		if err := s.blog.DeletePost(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		log.Printf("Post %s deleted by admin from %s", id, s.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
	})

	adminGroup.POST("/api/comments/:id/approve", func(c *gin.Context) {
		comment, err := s.blog.ApproveComment(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, comment)
	})

	adminGroup.DELETE("/api/comments/:id", func(c *gin.Context) {
		id := c.Param("id")
		if err := s.blog.DeleteComment(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		log.Printf("Comment %s deleted by admin from %s", id, s.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
	})

	// View visitors
	adminGroup.GET("/visitors", func(c *gin.Context) {
		var visitors []sqlite.Visitor
		if s.visitors != nil {
			var err error
			visitors, err = s.visitors.RecentVisitors(c.Request.Context(), visitorsPage)
			if err != nil {
				log.Printf("Error loading visitors: %v", err)
				c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
					"error": "Failed to load visitors",
				})
				return
			}
		}

		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{
			"visitors": visitors,
		})
	})

	// Privacy compliance endpoint
	adminGroup.POST("/privacy/delete-visitor-data", func(c *gin.Context) {
		s.cleanupOldVisitorData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup completed"})
	})

	// Admin statistics export (for backups or analysis)
	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.getAdminStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Set headers for file download
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")

		log.Printf("Admin stats exported by %s", s.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}
