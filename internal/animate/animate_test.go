package animate

import (
	"testing"
	"time"

	"github.com/Zachkp/resume-weblog/internal/dom/domtest"
)

func TestMergeOverridesOnlyGivenFields(t *testing.T) {
	t.Parallel()

	got := Merge(DefaultConfig, Delay(50*time.Millisecond))
	want := Config{Duration: 800 * time.Millisecond, Delay: 50 * time.Millisecond, Easing: DefaultConfig.Easing}
	if got != want {
		t.Fatalf("merge = %+v, want %+v", got, want)
	}
}

func TestMergeZeroValueOptionStillOverrides(t *testing.T) {
	t.Parallel()

	base := Config{Duration: time.Second, Delay: 200 * time.Millisecond, Easing: "ease"}
	got := Merge(base, Delay(0), Easing(""))
	if got.Delay != 0 {
		t.Fatalf("delay = %v, want 0", got.Delay)
	}
	if got.Easing != "" {
		t.Fatalf("easing = %q, want empty", got.Easing)
	}
	if got.Duration != time.Second {
		t.Fatalf("duration = %v, want 1s", got.Duration)
	}
}

func TestMergeLaterOptionWins(t *testing.T) {
	t.Parallel()

	got := Merge(DefaultConfig, Duration(100*time.Millisecond), nil, Duration(300*time.Millisecond))
	if got.Duration != 300*time.Millisecond {
		t.Fatalf("duration = %v, want 300ms", got.Duration)
	}
}

func TestAnimateSetsTimingAndClass(t *testing.T) {
	t.Parallel()

	doc := domtest.NewDocument()
	el := doc.Append("div")

	f := NewRunner().Animate(el, "fade-up", Delay(50*time.Millisecond))

	if got := el.Style(PropDuration); got != "800ms" {
		t.Fatalf("duration = %q, want 800ms", got)
	}
	if got := el.Style(PropDelay); got != "50ms" {
		t.Fatalf("delay = %q, want 50ms", got)
	}
	if got := el.Style(PropEasing); got != DefaultConfig.Easing {
		t.Fatalf("easing = %q, want %q", got, DefaultConfig.Easing)
	}
	if !el.HasClass("fade-up") {
		t.Fatal("expected animation class")
	}
	if f.Done() {
		t.Fatal("future resolved before animationend")
	}

	el.Fire(EndEvent)
	if !f.Done() {
		t.Fatal("expected future to resolve on animationend")
	}
	if n := el.ListenerCount(EndEvent); n != 0 {
		t.Fatalf("animationend listeners = %d, want 0 after firing", n)
	}
}

func TestAnimateWithoutEndEventNeverResolves(t *testing.T) {
	t.Parallel()

	doc := domtest.NewDocument()
	el := doc.Append("div")
	f := NewRunner().Animate(el, "no-such-keyframes")
	el.Fire("transitionend")
	if f.Done() {
		t.Fatal("future must stay pending without animationend")
	}
}

func TestAnimateNilElementResolves(t *testing.T) {
	t.Parallel()

	if !NewRunner().Animate(nil, "fade-up").Done() {
		t.Fatal("expected resolved future for nil element")
	}
}

func TestRunAppliesElementOptionsLast(t *testing.T) {
	t.Parallel()

	doc := domtest.NewDocument()
	el := doc.Append("div")
	a := Animatable{Element: el, Animation: "zoom-in", Options: []Option{Duration(400 * time.Millisecond)}}

	NewRunner().Run(a, Duration(900*time.Millisecond), Delay(150*time.Millisecond))

	if got := el.Style(PropDuration); got != "400ms" {
		t.Fatalf("duration = %q, want 400ms", got)
	}
	if got := el.Style(PropDelay); got != "150ms" {
		t.Fatalf("delay = %q, want 150ms", got)
	}
	if !el.HasClass("zoom-in") {
		t.Fatal("expected zoom-in class")
	}
}
