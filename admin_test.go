package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Zachkp/resume-weblog/internal/blog"
	"github.com/Zachkp/resume-weblog/internal/blog/sqlite"
)

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	form := url.Values{"username": {"zach"}, "password": {"correct horse"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := e.do(req)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/admin/dashboard" {
		t.Fatalf("login = %d %q", w.Code, w.Header().Get("Location"))
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func (e *testEnv) admin(method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return e.do(req)
}

func TestAdminRequiresSession(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	for _, path := range []string{"/admin/dashboard", "/admin/api/stats", "/admin/visitors"} {
		w := e.admin(http.MethodGet, path, "", nil)
		if w.Code != http.StatusFound || w.Header().Get("Location") != "/admin/login" {
			t.Fatalf("%s = %d %q", path, w.Code, w.Header().Get("Location"))
		}
	}
	bogus := &http.Cookie{Name: sessionCookie, Value: "not-a-jwt"}
	if w := e.admin(http.MethodGet, "/admin/dashboard", "", bogus); w.Code != http.StatusFound {
		t.Fatalf("bogus cookie = %d, want 302", w.Code)
	}
}

func TestAdminLogin(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	form := url.Values{"username": {"zach"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if w := e.do(req); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password = %d, want 401", w.Code)
	}

	cookie := e.login(t)
	if !cookie.HttpOnly || cookie.Path != "/admin" || cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("cookie = %+v", cookie)
	}
	w := e.admin(http.MethodGet, "/admin/dashboard", "", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard = %d", w.Code)
	}

	w = e.admin(http.MethodGet, "/admin/logout", "", cookie)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/admin/login" {
		t.Fatalf("logout = %d", w.Code)
	}
}

func TestSessionExpires(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, false, "ADMIN_SESSION_TTL", "1h")
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e.s.now = func() time.Time { return start }

	token, err := e.s.issueSession("zach")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.s.verifySession(token); err != nil {
		t.Fatalf("fresh session: %v", err)
	}
	e.s.now = func() time.Time { return start.Add(2 * time.Hour) }
	if _, err := e.s.verifySession(token); err == nil {
		t.Fatal("expired session accepted")
	}
}

func TestSessionRejectsForgeries(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, false)
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   "zach",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	tests := []struct {
		name string
		sign func() (string, error)
	}{
		{"other secret", func() (string, error) {
			return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("guess"))
		}},
		{"other algorithm", func() (string, error) {
			return jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString(e.s.secret)
		}},
		{"unsigned", func() (string, error) {
			return jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		}},
		{"other subject", func() (string, error) {
			c := claims
			c.Subject = "mallory"
			return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(e.s.secret)
		}},
		{"other issuer", func() (string, error) {
			c := claims
			c.Issuer = "elsewhere"
			return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(e.s.secret)
		}},
		{"no expiry", func() (string, error) {
			c := claims
			c.ExpiresAt = nil
			return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(e.s.secret)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.sign()
			if err != nil {
				t.Fatal(err)
			}
			if _, err := e.s.verifySession(token); err == nil {
				t.Fatal("forged session accepted")
			}
		})
	}
}

func TestAdminPostLifecycle(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	cookie := e.login(t)

	w := e.admin(http.MethodPost, "/admin/api/posts", `{"title":"From the dashboard","content":"Body","author":"Zach"}`, cookie)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", w.Code, w.Body)
	}
	post := decode[blog.Post](t, w)
	if post.ID == "" || post.Published {
		t.Fatalf("created = %+v", post)
	}

	if got := decode[[]blog.Post](t, e.api(http.MethodGet, "/api/posts", nil)); len(got) != 0 {
		t.Fatalf("draft listed publicly: %+v", got)
	}

	w = e.admin(http.MethodPatch, "/admin/api/posts/"+post.ID, `{"published":true}`, cookie)
	if w.Code != http.StatusOK || !decode[blog.Post](t, w).Published {
		t.Fatalf("publish = %d: %s", w.Code, w.Body)
	}
	if got := decode[[]blog.Post](t, e.api(http.MethodGet, "/api/posts", nil)); len(got) != 1 {
		t.Fatalf("published posts = %+v", got)
	}

	if w := e.admin(http.MethodPatch, "/admin/api/posts/"+post.ID, `{}`, cookie); w.Code != http.StatusBadRequest {
		t.Fatalf("empty patch = %d, want 400", w.Code)
	}
	if w := e.admin(http.MethodDelete, "/admin/api/posts/"+post.ID, "", cookie); w.Code != http.StatusOK {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := e.admin(http.MethodDelete, "/admin/api/posts/"+post.ID, "", cookie); w.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", w.Code)
	}
}

func TestAdminModeratesComments(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	cookie := e.login(t)
	ctx := context.Background()
	p := e.post(t, "Discussed", true)
	keep, err := e.svc.CreateComment(ctx, blog.Comment{PostID: p.ID, AuthorName: "Ada", Content: "Good"})
	if err != nil {
		t.Fatal(err)
	}
	spam, err := e.svc.CreateComment(ctx, blog.Comment{PostID: p.ID, AuthorName: "Bot", Content: "Buy now"})
	if err != nil {
		t.Fatal(err)
	}

	stats := decode[AdminStats](t, e.admin(http.MethodGet, "/admin/api/stats", "", cookie))
	if len(stats.PendingComments) != 2 || stats.TotalPosts != 1 || stats.PublishedPosts != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	if w := e.admin(http.MethodPost, "/admin/api/comments/"+keep.ID+"/approve", "", cookie); w.Code != http.StatusOK {
		t.Fatalf("approve = %d", w.Code)
	}
	if w := e.admin(http.MethodDelete, "/admin/api/comments/"+spam.ID, "", cookie); w.Code != http.StatusOK {
		t.Fatalf("delete = %d", w.Code)
	}

	got := decode[[]blog.Comment](t, e.api(http.MethodGet, "/api/posts/"+p.ID+"/comments", nil))
	if len(got) != 1 || got[0].ID != keep.ID {
		t.Fatalf("public comments = %+v", got)
	}
	stats = decode[AdminStats](t, e.admin(http.MethodGet, "/admin/api/stats", "", cookie))
	if len(stats.PendingComments) != 0 {
		t.Fatalf("pending = %+v", stats.PendingComments)
	}
}

func TestVisitorTracking(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	e.get("/")
	e.get("/work-content")

	dnt := httptest.NewRequest(http.MethodGet, "/", nil)
	dnt.Header.Set("DNT", "1")
	e.do(dnt)
	e.get("/privacy")
	e.get("/healthz")
	e.api(http.MethodGet, "/api/posts", nil)
	e.s.visits.Wait()

	ctx := context.Background()
	stats, err := e.store.VisitorStats(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalVisitors != 2 || stats.UniqueVisitors != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	visitors, err := e.store.RecentVisitors(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range visitors {
		if len(v.HashedIP) != 16 || strings.Contains(v.HashedIP, "192.0.2.1") {
			t.Fatalf("visitor ip not hashed: %+v", v)
		}
	}
}

func TestCleanupOldVisitorData(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true, "WEBLOG_VISITOR_RETENTION", "720h")
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e.s.now = func() time.Time { return now }
	ctx := context.Background()
	for _, at := range []time.Time{now.AddDate(0, -2, 0), now.AddDate(0, 0, -1)} {
		if err := e.store.RecordVisit(ctx, sqlite.Visitor{HashedIP: "abc", Path: "/", VisitedAt: at}); err != nil {
			t.Fatal(err)
		}
	}

	cookie := e.login(t)
	if w := e.admin(http.MethodPost, "/admin/privacy/delete-visitor-data", "", cookie); w.Code != http.StatusOK {
		t.Fatalf("cleanup = %d", w.Code)
	}
	visitors, err := e.store.RecentVisitors(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(visitors) != 1 || !visitors[0].VisitedAt.Equal(now.AddDate(0, 0, -1)) {
		t.Fatalf("visitors = %+v", visitors)
	}
}

func TestExportStats(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	w := e.admin(http.MethodGet, "/admin/export/stats", "", e.login(t))
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "admin-stats.json") {
		t.Fatalf("content disposition = %q", cd)
	}
}

func TestAdminWithoutStore(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, false)
	cookie := e.login(t)
	if w := e.admin(http.MethodGet, "/admin/dashboard", "", cookie); w.Code != http.StatusOK {
		t.Fatalf("dashboard = %d", w.Code)
	}
	if w := e.admin(http.MethodGet, "/admin/visitors", "", cookie); w.Code != http.StatusOK {
		t.Fatalf("visitors = %d", w.Code)
	}
	if w := e.admin(http.MethodPost, "/admin/api/posts", `{"title":"t","content":"c","author":"a"}`, cookie); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("create = %d, want 503", w.Code)
	}
}
