// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultInterval is the minimum time between two advances.
	DefaultInterval = 20 * time.Millisecond

	// DefaultFrame is the frame cadence callers should schedule at.
	DefaultFrame = 16 * time.Millisecond

	DefaultMinRun = 2
	DefaultMaxRun = 3
)

// Phase is what the renderer should decorate the displayed text with.
type Phase int

const (
	// PhaseSettled: nothing left to reveal and the source is finished.
	PhaseSettled Phase = iota
	// PhaseWaiting: the source is active but nothing is displayed yet.
	PhaseWaiting
	// PhaseTyping: text is being revealed; show a caret.
	PhaseTyping
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseTyping:
		return "typing"
	default:
		return "settled"
	}
}

// Clock supplies the current time to Step.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures a Revealer.
type Option func(*Revealer)

// WithInterval sets the minimum time between advances.
func WithInterval(d time.Duration) Option {
	return func(r *Revealer) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRunLength sets the inclusive bounds of a single advance.
func WithRunLength(min, max int) Option {
	return func(r *Revealer) {
		if min < 1 {
			min = 1
		}
		if max < min {
			max = min
		}
		r.minRun, r.maxRun = min, max
	}
}

// WithRand replaces the random source. intN must return a value in [0, n).
func WithRand(intN func(n int) int) Option {
	return func(r *Revealer) {
		if intN != nil {
			r.intN = intN
		}
	}
}

// WithClock sets the clock used by Step.
func WithClock(c Clock) Option {
	return func(r *Revealer) {
		if c != nil {
			r.clock = c
		}
	}
}

// Revealer is safe for concurrent use, though callers normally drive it from
// a single goroutine.
type Revealer struct {
	mu sync.Mutex

	target    []rune
	shown     int
	revealing bool
	scheduled bool
	disposed  bool

	interval time.Duration
	minRun   int
	maxRun   int
	intN     func(n int) int
	clock    Clock
	limiter  *rate.Limiter
}

// New returns an empty, settled Revealer.
func New(opts ...Option) *Revealer {
	r := &Revealer{
		interval: DefaultInterval,
		minRun:   DefaultMinRun,
		maxRun:   DefaultMaxRun,
		intN:     rand.IntN,
		clock:    systemClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.limiter = rate.NewLimiter(rate.Every(r.interval), 1)
	return r
}

// SetTarget replaces the text to reveal. revealing reports whether the source
// is still producing text. The returned flag is true when the caller must
// schedule a frame.
func (r *Revealer) SetTarget(text string, revealing bool) (schedule bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return false
	}
	r.target = []rune(text)
	r.revealing = revealing
	if r.shown > len(r.target) {
		r.shown = len(r.target)
	}
	return r.requestFrameLocked()
}

// SetRevealing updates only the source-active flag.
func (r *Revealer) SetRevealing(revealing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.disposed {
		r.revealing = revealing
	}
}

// Frame runs one scheduled frame at now. It returns true when another frame
// must be scheduled.
func (r *Revealer) Frame(now time.Time) (again bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scheduled = false
	if r.disposed {
		return false
	}
	r.advanceLocked(now)
	return r.requestFrameLocked()
}

// Step runs a frame at the configured clock's time.
func (r *Revealer) Step() (again bool) {
	return r.Frame(r.clock.Now())
}

func (r *Revealer) advanceLocked(now time.Time) {
	remaining := len(r.target) - r.shown
	if remaining <= 0 {
		return
	}
	// Throttle only counts successful advances.
	if !r.limiter.AllowN(now, 1) {
		return
	}
	n := r.minRun + r.intN(r.maxRun-r.minRun+1)
	r.shown += min(n, remaining)
}

func (r *Revealer) requestFrameLocked() bool {
	if r.scheduled || r.shown >= len(r.target) {
		return false
	}
	r.scheduled = true
	return true
}

// Finish reveals the whole target at once.
func (r *Revealer) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.disposed {
		r.shown = len(r.target)
	}
}

// Dispose stops the engine. Outstanding frames become no-ops.
func (r *Revealer) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disposed = true
}

// Disposed reports whether Dispose was called.
func (r *Revealer) Disposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

// Displayed returns the revealed prefix of the target.
func (r *Revealer) Displayed() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.target[:r.shown])
}

// Target returns the full target text.
func (r *Revealer) Target() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.target)
}

// Pending reports whether part of the target is still hidden.
func (r *Revealer) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.disposed && r.shown < len(r.target)
}

// Revealing reports the source-active flag.
func (r *Revealer) Revealing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revealing
}

// Phase returns the current decoration state.
func (r *Revealer) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.revealing && r.shown == 0:
		return PhaseWaiting
	case r.revealing || r.shown < len(r.target):
		return PhaseTyping
	default:
		return PhaseSettled
	}
}
