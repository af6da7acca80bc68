package feed

import (
	"bytes"
	"log"
	"strings"
	"sync"
	"testing"
)

func quietHub() (*Hub, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewHub(log.New(&buf, "", 0)), &buf
}

func TestPublishReachesTableSubscribersOnly(t *testing.T) {
	t.Parallel()

	h, _ := quietHub()
	var posts, comments []Change
	h.Subscribe("posts", func(c Change) { posts = append(posts, c) })
	h.Subscribe("comments", func(c Change) { comments = append(comments, c) })

	h.Publish(Change{Table: "posts", Type: Insert, New: "p1"})

	if len(posts) != 1 || posts[0].New != "p1" || posts[0].Type != Insert {
		t.Fatalf("posts changes = %+v", posts)
	}
	if posts[0].At.IsZero() {
		t.Fatal("expected commit timestamp")
	}
	if len(comments) != 0 {
		t.Fatalf("comments changes = %+v, want none", comments)
	}
}

func TestUnsubscribeStopsDeliveryAndIsIdempotent(t *testing.T) {
	t.Parallel()

	h, buf := quietHub()
	calls := 0
	sub := h.Subscribe("posts", func(Change) { calls++ })
	if h.Subscribers("posts") != 1 {
		t.Fatalf("subscribers = %d, want 1", h.Subscribers("posts"))
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	h.Publish(Change{Table: "posts", Type: Delete})

	if calls != 0 {
		t.Fatalf("calls = %d after unsubscribe", calls)
	}
	if h.Subscribers("posts") != 0 {
		t.Fatalf("subscribers = %d, want 0", h.Subscribers("posts"))
	}
	if n := strings.Count(buf.String(), "Unsubscribed from table posts"); n != 1 {
		t.Fatalf("unsubscribe logs = %d, want 1", n)
	}
}

func TestSubscriptionOrder(t *testing.T) {
	t.Parallel()

	h, _ := quietHub()
	var order []int
	for i := 0; i < 5; i++ {
		h.Subscribe("posts", func(Change) { order = append(order, i) })
	}
	h.Publish(Change{Table: "posts", Type: Update})
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want ascending", order)
		}
	}
}

func TestUnsubscribeFromCallback(t *testing.T) {
	t.Parallel()

	h, _ := quietHub()
	var sub *Subscription
	calls := 0
	sub = h.Subscribe("posts", func(Change) {
		calls++
		sub.Unsubscribe()
	})
	h.Publish(Change{Table: "posts", Type: Insert})
	h.Publish(Change{Table: "posts", Type: Insert})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	t.Parallel()

	h, _ := quietHub()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := h.Subscribe("posts", func(Change) {})
			sub.Unsubscribe()
		}()
		go func() {
			defer wg.Done()
			h.Publish(Change{Table: "posts", Type: Insert})
		}()
	}
	wg.Wait()
	if h.Subscribers("posts") != 0 {
		t.Fatalf("subscribers = %d, want 0", h.Subscribers("posts"))
	}
}

func TestNilSubscriptionUnsubscribe(t *testing.T) {
	t.Parallel()

	var sub *Subscription
	sub.Unsubscribe()
}
