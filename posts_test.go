package main

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Zachkp/resume-weblog/internal/blog"
	"github.com/Zachkp/resume-weblog/internal/feed"
)

func TestAPIRequiresKey(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	if w := e.get("/api/posts"); w.Code != http.StatusUnauthorized {
		t.Fatalf("no key = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set(apiKeyHeader, "nope")
	if w := e.do(req); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key = %d, want 401", w.Code)
	}

	if w := e.api(http.MethodGet, "/api/posts", nil); w.Code != http.StatusOK {
		t.Fatalf("right key = %d, want 200", w.Code)
	}
}

func TestAPIWithoutConfiguredKeyRejectsEverything(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true, "WEBLOG_ACCESS_KEY", "")
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set(apiKeyHeader, "")
	if w := e.do(req); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAPIListsOnlyPublished(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	e.post(t, "Alpha", true)
	e.post(t, "Draft", false)
	e.post(t, "Beta", true)

	w := e.api(http.MethodGet, "/api/posts?order_by=title", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	posts := decode[[]blog.Post](t, w)
	if len(posts) != 2 || posts[0].Title != "Alpha" || posts[1].Title != "Beta" {
		t.Fatalf("posts = %+v", posts)
	}
}

func TestAPIOrderBy(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	e.post(t, "Alpha", true)
	e.post(t, "Gamma", true)
	e.post(t, "Beta", true)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Beta", "Gamma", "Alpha"}},
		{"?order_by=title", []string{"Alpha", "Beta", "Gamma"}},
		{"?order_by=title%20asc", []string{"Alpha", "Beta", "Gamma"}},
		{"?order_by=title%20desc", []string{"Gamma", "Beta", "Alpha"}},
		{"?order_by=created_at", []string{"Alpha", "Gamma", "Beta"}},
	}
	for _, tt := range tests {
		w := e.api(http.MethodGet, "/api/posts"+tt.query, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%q = %d: %s", tt.query, w.Code, w.Body)
		}
		var got []string
		for _, p := range decode[[]blog.Post](t, w) {
			got = append(got, p.Title)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Fatalf("%q = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestAPIRejectsBadOrderBy(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	for _, q := range []string{
		"order_by=content",
		"order_by=title%20sideways",
		"order_by=title,author",
	} {
		if w := e.api(http.MethodGet, "/api/posts?"+q, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("%s = %d, want 400", q, w.Code)
		}
	}
}

func TestAPIUnconfiguredStore(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, false)
	if w := e.api(http.MethodGet, "/api/posts", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestAPIGetPost(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	pub := e.post(t, "Visible", true)
	draft := e.post(t, "Hidden", false)

	w := e.api(http.MethodGet, "/api/posts/"+pub.ID, nil)
	if w.Code != http.StatusOK || decode[blog.Post](t, w).Title != "Visible" {
		t.Fatalf("published = %d: %s", w.Code, w.Body)
	}
	if w := e.api(http.MethodGet, "/api/posts/"+draft.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("draft = %d, want 404", w.Code)
	}
	if w := e.api(http.MethodGet, "/api/posts/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing = %d, want 404", w.Code)
	}
}

func TestAPISearch(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	e.post(t, "Go generics", true)
	e.post(t, "Rust lifetimes", true)
	e.post(t, "Go draft", false)

	posts := decode[[]blog.Post](t, e.api(http.MethodGet, "/api/posts/search?q=go", nil))
	if len(posts) != 1 || posts[0].Title != "Go generics" {
		t.Fatalf("search = %+v", posts)
	}
}

func TestAPICommentsAwaitApproval(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	p := e.post(t, "Open for comments", true)
	target := "/api/posts/" + p.ID + "/comments"

	w := e.api(http.MethodPost, target, map[string]string{"author_name": " Ada ", "content": "Nice post"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", w.Code, w.Body)
	}
	created := decode[struct {
		Comment blog.Comment `json:"comment"`
	}](t, w).Comment
	if created.Approved || created.AuthorName != "Ada" {
		t.Fatalf("created = %+v", created)
	}

	if got := decode[[]blog.Comment](t, e.api(http.MethodGet, target, nil)); len(got) != 0 {
		t.Fatalf("unapproved comment listed: %+v", got)
	}
	if _, err := e.svc.ApproveComment(context.Background(), created.ID); err != nil {
		t.Fatal(err)
	}
	if got := decode[[]blog.Comment](t, e.api(http.MethodGet, target, nil)); len(got) != 1 {
		t.Fatalf("approved comments = %+v", got)
	}
}

func TestAPIRejectsInvalidComment(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	p := e.post(t, "Post", true)
	draft := e.post(t, "Draft", false)

	w := e.api(http.MethodPost, "/api/posts/"+p.ID+"/comments", map[string]string{"author_name": "Ada", "content": "  "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank = %d, want 400", w.Code)
	}
	w = e.api(http.MethodPost, "/api/posts/"+draft.ID+"/comments", map[string]string{"author_name": "Ada", "content": "hi"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("draft = %d, want 404", w.Code)
	}
}

func TestPostPage(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	p := e.post(t, "Rendered post", true)
	c, err := e.svc.CreateComment(context.Background(), blog.Comment{PostID: p.ID, AuthorName: "Grace", Content: "Approved words"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.ApproveComment(context.Background(), c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.CreateComment(context.Background(), blog.Comment{PostID: p.ID, AuthorName: "Mallory", Content: "Pending words"}); err != nil {
		t.Fatal(err)
	}

	w := e.get("/posts/" + p.ID)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Rendered post") || !strings.Contains(body, "Approved words") {
		t.Fatal("post page missing content")
	}
	if strings.Contains(body, "Pending words") {
		t.Fatal("pending comment rendered")
	}

	draft := e.post(t, "Unreleased", false)
	if w := e.get("/posts/" + draft.ID); w.Code != http.StatusNotFound {
		t.Fatalf("draft page = %d, want 404", w.Code)
	}
	if w := newTestEnv(t, false).get("/posts/x"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unconfigured page = %d, want 503", w.Code)
	}
}

func TestPublicChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ch   feed.Change
		want bool
	}{
		{"published insert", feed.Change{New: blog.Post{Published: true}}, true},
		{"draft insert", feed.Change{New: blog.Post{}}, false},
		{"unpublish", feed.Change{New: blog.Post{}, Old: blog.Post{Published: true}}, true},
		{"draft delete", feed.Change{Old: blog.Post{}}, false},
		{"approved comment", feed.Change{New: blog.Comment{Approved: true}}, true},
		{"pending comment", feed.Change{New: blog.Comment{}}, false},
		{"unknown row", feed.Change{New: "row"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := publicChange(tt.ch); got != tt.want {
				t.Fatalf("publicChange = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFeedRejectsUnknownTable(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	if w := e.api(http.MethodGet, "/api/feed/users", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestFeedStreamsPublicChanges(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, true)
	srv := httptest.NewServer(e.r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/feed/"+blog.TablePosts, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set(apiKeyHeader, testKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	next := func(event string) string {
		t.Helper()
		for lines.Scan() {
			if lines.Text() != "event:"+event {
				continue
			}
			if !lines.Scan() {
				break
			}
			return strings.TrimPrefix(lines.Text(), "data:")
		}
		t.Fatalf("stream ended before %q event: %v", event, lines.Err())
		return ""
	}

	next("subscribed")
	e.post(t, "Quiet draft", false)
	e.post(t, "Loud release", true)

	data := next("change")
	if !strings.Contains(data, "Loud release") || !strings.Contains(data, `"eventType":"INSERT"`) {
		t.Fatalf("change = %s", data)
	}
	if strings.Contains(data, "Quiet draft") {
		t.Fatal("draft change streamed")
	}
}
