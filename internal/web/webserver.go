// Package web serves the surface mapping UI and its chart, JSON and PNG outputs.
package web

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/venus.report/internal/config"
	"github.com/banshee-data/venus.report/internal/db"
	"github.com/banshee-data/venus.report/internal/httputil"
	"github.com/banshee-data/venus.report/internal/monitoring"
	"github.com/banshee-data/venus.report/internal/surface"
	"github.com/banshee-data/venus.report/internal/version"
)

// DiagnosticsStore is the operator-facing diagnostics backend.
type DiagnosticsStore interface {
	ListRecentDiagnostics(limit int) ([]db.DiagnosticRow, error)
	AttachAdminRoutes(mux *http.ServeMux) error
}

// WebServer handles the HTTP interface of the surface mapper.
type WebServer struct {
	address         string
	session         *Session
	diagnostics     DiagnosticsStore
	templates       TemplateProvider
	devMode         bool
	templatesDir    string
	maxInputBytes   int64
	assetsHost      string
	shutdownTimeout time.Duration
	server          *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	Session *Session
	// Diagnostics is optional; without it /api/diagnostics answers 503.
	Diagnostics DiagnosticsStore
	// Templates overrides the template source. When nil, dev mode reads
	// TemplatesDir from disk and production uses the embedded copies.
	Templates       TemplateProvider
	DevMode         bool
	TemplatesDir    string
	MaxInputBytes   int64
	AssetsHost      string
	ShutdownTimeout time.Duration
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(cfg WebServerConfig) (*WebServer, error) {
	ws := &WebServer{
		address:         cfg.Address,
		session:         cfg.Session,
		diagnostics:     cfg.Diagnostics,
		templates:       cfg.Templates,
		devMode:         cfg.DevMode,
		templatesDir:    cfg.TemplatesDir,
		maxInputBytes:   cfg.MaxInputBytes,
		assetsHost:      cfg.AssetsHost,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	if ws.session == nil {
		ws.session = NewSession(surface.Render, surface.DefaultInput(config.DefaultGridSize, config.DefaultCellValue))
	}
	if ws.maxInputBytes <= 0 {
		ws.maxInputBytes = config.DefaultMaxInputBytes
	}
	if ws.assetsHost == "" {
		ws.assetsHost = config.DefaultAssetsHost
	}
	if ws.shutdownTimeout <= 0 {
		ws.shutdownTimeout = config.DefaultShutdownTimeout
	}
	if ws.templatesDir == "" {
		ws.templatesDir = config.DefaultTemplatesDir
	}
	if ws.templates == nil {
		if ws.devMode {
			ws.templates = NewFSTemplateProvider(os.DirFS(ws.templatesDir))
		} else {
			ws.templates = NewEmbeddedTemplateProvider()
		}
	}

	mux, err := ws.setupRoutes()
	if err != nil {
		return nil, err
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ws, nil
}

// Start listens on the configured address and serves until ctx is cancelled.
func (ws *WebServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ws.address)
	if err != nil {
		return err
	}
	return ws.Serve(ctx, ln)
}

// Serve handles connections on ln until ctx is cancelled, then shuts down
// gracefully. It returns once the server goroutine has exited.
func (ws *WebServer) Serve(ctx context.Context, ln net.Listener) error {
	if ws.devMode {
		if reloader, ok := ws.templates.(interface{ Reset() }); ok {
			watcher, err := watchTemplates(ws.templatesDir, func(path string) {
				monitoring.Logf("template %s changed, reloading", path)
				reloader.Reset()
			})
			if err != nil {
				monitoring.Logf("template reload disabled: %v", err)
			} else {
				defer watcher.Close()
			}
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		monitoring.Logf("Starting HTTP server on %s", ln.Addr())
		serveErr <- ws.server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ws.shutdownTimeout)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	<-serveErr

	monitoring.Logf("HTTP server routine stopped")
	return nil
}

// Handler returns the server's root handler.
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		monitoring.Logf("got request %s %q", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/", ws.handleIndex)
	mux.HandleFunc("/chart", ws.handleChart)
	mux.HandleFunc("/chart.png", ws.handleChartPNG)
	mux.HandleFunc("/api/surface", ws.handleSurfaceAPI)
	mux.HandleFunc("/api/diagnostics", ws.handleDiagnostics)
	mux.HandleFunc("/health", ws.handleHealth)

	if ws.diagnostics != nil {
		if err := ws.diagnostics.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

type indexData struct {
	Title       string
	Text        string
	PanelHeight int
	DevMode     bool
}

func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.WriteJSONError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}

	var buf bytes.Buffer
	err := ws.templates.ExecuteTemplate(&buf, "index.html", indexData{
		Title:       surface.PlotTitle,
		Text:        ws.session.Text(),
		PanelHeight: surface.PanelHeight,
		DevMode:     ws.devMode,
	})
	if err != nil {
		monitoring.Logf("failed to render index: %v", err)
		httputil.InternalServerError(w, "failed to render index")
		return
	}
	httputil.WriteHTML(w, buf.Bytes())
}

// readGrid extracts the submitted grid text from a form field or a raw body.
func (ws *WebServer) readGrid(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, ws.maxInputBytes)
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(ws.maxInputBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return "", err
		}
		return r.FormValue("grid"), nil
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeReadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httputil.RequestTooLarge(w, "grid input too large")
		return
	}
	httputil.BadRequest(w, "failed to read grid input")
}

// submitOrCurrent submits the request's grid on POST and returns the current
// result on GET. ok is false when a response has already been written.
func (ws *WebServer) submitOrCurrent(w http.ResponseWriter, r *http.Request) (res Result, ok bool) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return ws.session.Current(), true
	case http.MethodPost:
		text, err := ws.readGrid(w, r)
		if err != nil {
			writeReadError(w, err)
			return Result{}, false
		}
		return ws.session.Submit(text), true
	default:
		httputil.MethodNotAllowed(w, http.MethodGet, http.MethodPost)
		return Result{}, false
	}
}

func (ws *WebServer) handleChart(w http.ResponseWriter, r *http.Request) {
	res, ok := ws.submitOrCurrent(w, r)
	if !ok {
		return
	}
	page, err := renderSurfacePage(res.Spec, ws.assetsHost)
	if err != nil {
		monitoring.Logf("render %s: %v", res.RenderID, err)
		httputil.InternalServerError(w, "failed to render chart")
		return
	}
	httputil.WriteHTML(w, page)
}

func (ws *WebServer) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	res := ws.session.Current()
	img, err := renderHeatmapPNG(res.Spec)
	if err != nil {
		monitoring.Logf("render %s png: %v", res.RenderID, err)
		httputil.InternalServerError(w, "failed to render png")
		return
	}
	httputil.WriteBody(w, "image/png", img)
}

// SurfaceResponse is the JSON body of /api/surface.
type SurfaceResponse struct {
	RenderID  string         `json:"render_id"`
	Clicks    uint64         `json:"clicks"`
	Error     string         `json:"error,omitempty"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Figure    surface.Figure `json:"figure"`
}

func (ws *WebServer) handleSurfaceAPI(w http.ResponseWriter, r *http.Request) {
	res, ok := ws.submitOrCurrent(w, r)
	if !ok {
		return
	}
	resp := SurfaceResponse{
		RenderID: res.RenderID,
		Clicks:   ws.session.Clicks(),
		Figure:   res.Spec.Figure(),
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
		resp.ErrorKind = surface.KindName(res.Err)
	}
	httputil.WriteJSONOK(w, resp)
}

func (ws *WebServer) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	if ws.diagnostics == nil {
		httputil.ServiceUnavailable(w, "diagnostics store not configured")
		return
	}
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	rows, err := ws.diagnostics.ListRecentDiagnostics(limit)
	if err != nil {
		monitoring.Logf("list diagnostics: %v", err)
		httputil.InternalServerError(w, "failed to list diagnostics")
		return
	}
	httputil.WriteJSONOK(w, rows)
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}
