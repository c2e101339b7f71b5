package web

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/venus.report/internal/monitoring"
	"github.com/banshee-data/venus.report/internal/surface"
)

// RenderFunc turns raw grid text into a surface spec.
type RenderFunc func(raw string) (*surface.SurfaceSpec, error)

// Result is the outcome of one render. Spec is never nil: a failed render
// carries surface.Empty() alongside the error.
type Result struct {
	Seq        uint64
	RenderID   string
	Spec       *surface.SurfaceSpec
	Err        error
	InputBytes int
	RenderedAt time.Time
}

// OK reports whether the render succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Session is the state behind one UI: the text box contents, the button click
// count and the result currently on display.
type Session struct {
	render   RenderFunc
	reporter monitoring.Reporter
	newID    func() string
	now      func() time.Time

	mu      sync.Mutex
	text    string
	clicks  uint64
	current Result
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithReporter sends render failures to r instead of the log.
func WithReporter(r monitoring.Reporter) SessionOption {
	return func(s *Session) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithIDGenerator replaces the uuid render id source.
func WithIDGenerator(f func() string) SessionOption {
	return func(s *Session) {
		if f != nil {
			s.newID = f
		}
	}
}

// NewSession creates a session showing defaultText. The default is rendered
// immediately as click zero, so the first page load already has a plot.
func NewSession(render RenderFunc, defaultText string, opts ...SessionOption) *Session {
	if render == nil {
		render = surface.Render
	}
	s := &Session{
		render:   render,
		reporter: monitoring.LogReporter{},
		newID:    uuid.NewString,
		now:      time.Now,
		text:     defaultText,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current = s.run(0, defaultText)
	return s
}

// Submit records a button click with the given text and renders it. The
// returned result is always this submission's; it becomes the displayed one
// unless a later submission finished first.
func (s *Session) Submit(text string) Result {
	s.mu.Lock()
	s.clicks++
	seq := s.clicks
	s.text = text
	s.mu.Unlock()

	res := s.run(seq, text)

	s.mu.Lock()
	if res.Seq >= s.current.Seq {
		s.current = res
	}
	s.mu.Unlock()
	return res
}

// Current returns the result on display.
func (s *Session) Current() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Text returns the current text box contents.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Clicks returns how many times Submit has been called.
func (s *Session) Clicks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clicks
}

func (s *Session) run(seq uint64, text string) Result {
	res := Result{
		Seq:        seq,
		RenderID:   s.newID(),
		InputBytes: len(text),
	}

	spec, err := s.safeRender(text)
	res.RenderedAt = s.now()
	if err != nil {
		res.Err = err
		res.Spec = surface.Empty()
		d := monitoring.Diagnostic{
			RenderID:   res.RenderID,
			Kind:       surface.KindName(err),
			Message:    err.Error(),
			InputBytes: res.InputBytes,
			CreatedAt:  res.RenderedAt,
		}
		if rerr := s.reporter.Report(d); rerr != nil {
			monitoring.Logf("failed to report diagnostic for render %s: %v", res.RenderID, rerr)
		}
		return res
	}
	if spec == nil {
		spec = surface.Empty()
	}
	res.Spec = spec
	return res
}

// safeRender keeps a panicking render callback from escaping the session.
func (s *Session) safeRender(text string) (spec *surface.SurfaceSpec, err error) {
	defer func() {
		if r := recover(); r != nil {
			spec, err = nil, fmt.Errorf("render panicked: %v", r)
		}
	}()
	return s.render(text)
}
