package web

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/venus.report/internal/monitoring"
	"github.com/banshee-data/venus.report/internal/surface"
)

type captureReporter struct {
	mu  sync.Mutex
	got []monitoring.Diagnostic
	err error
}

func (c *captureReporter) Report(d monitoring.Diagnostic) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, d)
	return c.err
}

func (c *captureReporter) diagnostics() []monitoring.Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]monitoring.Diagnostic(nil), c.got...)
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("render-%d", n)
	}
}

func TestNewSession_RendersDefault(t *testing.T) {
	s := NewSession(surface.Render, surface.DefaultInput(8, 2))

	cur := s.Current()
	require.True(t, cur.OK())
	assert.Equal(t, uint64(0), cur.Seq)
	assert.Equal(t, uint64(0), s.Clicks())
	assert.Len(t, cur.Spec.Z, 8)
	assert.NotEmpty(t, cur.RenderID)
	assert.Equal(t, surface.DefaultInput(8, 2), s.Text())
}

func TestNewSession_NilRenderUsesSurfaceRender(t *testing.T) {
	s := NewSession(nil, "1,2\n3,1")
	assert.Equal(t, [][]int{{3, 1}, {1, 2}}, s.Current().Spec.Z)
}

func TestSession_SubmitSuccess(t *testing.T) {
	rep := &captureReporter{}
	s := NewSession(surface.Render, "2", WithReporter(rep), WithIDGenerator(sequentialIDs()))

	res := s.Submit("1,2\n3,1")
	require.True(t, res.OK())
	assert.Equal(t, uint64(1), res.Seq)
	assert.Equal(t, "render-2", res.RenderID)
	assert.Equal(t, 7, res.InputBytes)
	assert.Equal(t, [][]int{{3, 1}, {1, 2}}, res.Spec.Z)

	assert.Equal(t, res, s.Current())
	assert.Equal(t, uint64(1), s.Clicks())
	assert.Equal(t, "1,2\n3,1", s.Text())
	assert.Empty(t, rep.diagnostics())
}

func TestSession_MalformedInputShowsEmptyPlot(t *testing.T) {
	for _, raw := range []string{"a,b,c", "1,2\n3", ""} {
		t.Run(fmt.Sprintf("%q", raw), func(t *testing.T) {
			rep := &captureReporter{}
			s := NewSession(surface.Render, "2", WithReporter(rep), WithIDGenerator(sequentialIDs()))

			res := s.Submit(raw)
			require.Error(t, res.Err)
			require.NotNil(t, res.Spec)
			assert.True(t, res.Spec.IsEmpty())
			assert.Equal(t, res, s.Current())

			diags := rep.diagnostics()
			require.Len(t, diags, 1)
			assert.Equal(t, res.RenderID, diags[0].RenderID)
			assert.Equal(t, surface.KindName(res.Err), diags[0].Kind)
			assert.Equal(t, len(raw), diags[0].InputBytes)
			assert.NotContains(t, diags[0].Message, "\n")
		})
	}
}

func TestSession_ReporterFailureIsLogged(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()

	var logged []string
	var mu sync.Mutex
	monitoring.SetLogger(func(format string, v ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		logged = append(logged, fmt.Sprintf(format, v...))
	})

	rep := &captureReporter{err: errors.New("db locked")}
	s := NewSession(surface.Render, "2", WithReporter(rep))
	res := s.Submit("x")

	assert.Error(t, res.Err)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "db locked")
}

func TestSession_PanickingRenderIsContained(t *testing.T) {
	rep := &captureReporter{}
	boom := func(string) (*surface.SurfaceSpec, error) { panic("kaboom") }

	s := NewSession(boom, "2", WithReporter(rep))
	res := s.Current()

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "kaboom")
	assert.True(t, res.Spec.IsEmpty())
	require.Len(t, rep.diagnostics(), 1)
	assert.Equal(t, "unknown", rep.diagnostics()[0].Kind)
}

func TestSession_NilSpecBecomesEmpty(t *testing.T) {
	s := NewSession(func(string) (*surface.SurfaceSpec, error) { return nil, nil }, "")
	res := s.Current()
	assert.NoError(t, res.Err)
	require.NotNil(t, res.Spec)
	assert.True(t, res.Spec.IsEmpty())
}

func TestSession_MostRecentSubmissionWins(t *testing.T) {
	release := map[string]chan struct{}{
		"slow": make(chan struct{}),
		"fast": make(chan struct{}),
	}
	started := make(chan string, 2)
	render := func(raw string) (*surface.SurfaceSpec, error) {
		if ch, ok := release[raw]; ok {
			started <- raw
			<-ch
			return surface.Build(surface.Grid{{len(raw)}}), nil
		}
		return surface.Render(raw)
	}

	s := NewSession(render, "2")

	var wg sync.WaitGroup
	results := make(map[string]Result)
	var mu sync.Mutex
	submit := func(text string) {
		defer wg.Done()
		res := s.Submit(text)
		mu.Lock()
		results[text] = res
		mu.Unlock()
	}

	wg.Add(1)
	go submit("slow")
	require.Equal(t, "slow", <-started)

	wg.Add(1)
	go submit("fast")
	require.Equal(t, "fast", <-started)

	close(release["fast"])
	require.Eventually(t, func() bool { return s.Current().Seq == 2 }, timeoutShort, tick)

	close(release["slow"])
	wg.Wait()

	assert.Equal(t, uint64(1), results["slow"].Seq)
	assert.Equal(t, uint64(2), results["fast"].Seq)
	assert.Equal(t, uint64(2), s.Current().Seq, "a stale render must not replace a newer one")
	assert.Equal(t, [][]int{{4}}, s.Current().Spec.Z)
	assert.Equal(t, uint64(2), s.Clicks())
}

func TestSession_ConcurrentSubmits(t *testing.T) {
	s := NewSession(surface.Render, "2")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Submit(fmt.Sprintf("%d,%d", i%3+1, i%2+1))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, uint64(20), s.Clicks())
	assert.Equal(t, uint64(20), s.Current().Seq)
}
