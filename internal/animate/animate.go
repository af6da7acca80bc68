// Package animate applies timed CSS animations to page elements.
package animate

import (
	"fmt"
	"time"

	"github.com/Zachkp/resume-weblog/internal/dom"
	"github.com/Zachkp/resume-weblog/internal/eventloop"
)

// Inline style properties written by Animate.
const (
	PropDuration = "animation-duration"
	PropDelay    = "animation-delay"
	PropEasing   = "animation-timing-function"

	// EndEvent is the platform notification that an animation finished.
	EndEvent = "animationend"
)

// Config is the timing of one animation run.
type Config struct {
	Duration time.Duration
	Delay    time.Duration
	Easing   string
}

// DefaultConfig is the process-wide timing every call starts from.
var DefaultConfig = Config{
	Duration: 800 * time.Millisecond,
	Delay:    0,
	Easing:   "cubic-bezier(0.175, 0.885, 0.32, 1.275)",
}

// Option overrides one timing field. Passing an option is what marks the
// field as overridden, so Delay(0) replaces a non-zero default delay.
type Option func(*Config)

// Duration overrides the animation duration.
func Duration(d time.Duration) Option {
	return func(c *Config) { c.Duration = d }
}

// Delay overrides the animation delay.
func Delay(d time.Duration) Option {
	return func(c *Config) { c.Delay = d }
}

// Easing overrides the timing function.
func Easing(curve string) Option {
	return func(c *Config) { c.Easing = curve }
}

// Merge overlays opts on base. Later options win over earlier ones.
func Merge(base Config, opts ...Option) Config {
	cfg := base
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Millis formats d as a CSS millisecond time value.
func Millis(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

// Animatable is an element tagged for animation together with the name of
// the animation and any per-element timing override.
type Animatable struct {
	Element   dom.Element
	Animation string
	Options   []Option
}

// Runner runs named animations.
type Runner struct {
	Defaults Config
}

// NewRunner returns a runner using DefaultConfig.
func NewRunner() *Runner {
	return &Runner{Defaults: DefaultConfig}
}

// Animate writes the merged timing onto el, adds the animation class name and
// returns a future resolved by the element's first animationend.
//
// The name is not checked against declared keyframes: when no animation is
// attached to the class, animationend never fires and neither does the
// future. A nil element yields an already resolved future.
func (r *Runner) Animate(el dom.Element, name string, opts ...Option) *eventloop.Future {
	if el == nil {
		return eventloop.Resolved()
	}
	cfg := Merge(r.Defaults, opts...)

	el.SetStyle(PropDuration, Millis(cfg.Duration))
	el.SetStyle(PropDelay, Millis(cfg.Delay))
	el.SetStyle(PropEasing, cfg.Easing)

	future, resolve := eventloop.NewFuture()
	el.Once(EndEvent, func(dom.Event) { resolve() })
	el.AddClass(name)
	return future
}

// Run animates a registered element with its own options appended to extra.
func (r *Runner) Run(a Animatable, extra ...Option) *eventloop.Future {
	opts := append(append([]Option(nil), extra...), a.Options...)
	return r.Animate(a.Element, a.Animation, opts...)
}
