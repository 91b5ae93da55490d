// Package server exposes rendering over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"svgraster/internal/cache"
	"svgraster/internal/config"
	"svgraster/pkg/api"
	"svgraster/pkg/destination"
	"svgraster/pkg/graphics"
	"svgraster/pkg/raster"
	"svgraster/pkg/svg"
	"svgraster/pkg/viewport"
)

// MaxBodySize bounds uploaded documents.
const MaxBodySize = 32 << 20

// errBadRequest marks request parameter errors.
var errBadRequest = errors.New("bad request")

type Server struct {
	config    *config.Configuration
	cache     *cache.Cache
	validator *config.Validator
	logger    *zap.Logger
	router    *mux.Router
}

// New creates a server. cache may be nil to disable caching.
func New(cfg *config.Configuration, c *cache.Cache, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		config:    cfg,
		cache:     c,
		validator: config.NewValidator(cfg),
		logger:    logger,
		router:    mux.NewRouter(),
	}
	s.router.HandleFunc("/render", s.render).Methods(http.MethodPost)
	s.router.HandleFunc("/health-check", s.healthCheck).Methods(http.MethodGet)
	s.router.HandleFunc("/purge", s.purge).Methods(http.MethodPost)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured port until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type request struct {
	typ    destination.Type
	render api.RenderOptions
	encode destination.EncodeOptions
	key    []string
}

func (s *Server) parseRequest(r *http.Request) (*request, error) {
	q := r.URL.Query()
	req := &request{render: api.DefaultRenderOptions()}
	req.render.Viewport = s.config.Viewport.ViewportSize()
	req.render.MaxSize = s.config.Limits.ViewportSize()
	req.encode.Quality = s.config.Quality

	var err error
	if f := q.Get("format"); f != "" {
		if req.typ, err = destination.ParseType(f); err != nil {
			return nil, err
		}
	}
	if req.render.Width, err = parseDimension(q.Get("width")); err != nil {
		return nil, err
	}
	if req.render.Height, err = parseDimension(q.Get("height")); err != nil {
		return nil, err
	}
	var w, h float64
	if req.render.Width != nil {
		w = *req.render.Width
	}
	if req.render.Height != nil {
		h = *req.render.Height
	}
	if err := s.validator.CheckRequestNewSize(w, h); err != nil {
		return nil, err
	}

	if a := q.Get("aoi"); a != "" {
		aoi, err := graphics.ParseRect(a)
		if err != nil {
			return nil, err
		}
		req.render.AreaOfInterest = &aoi
	}
	if v := q.Get("quality"); v != "" {
		if req.encode.Quality, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("%w: quality %q", errBadRequest, v)
		}
	}

	bg := s.config.Background
	if v := q.Get("background"); v != "" {
		bg = v
	}
	if bg == "" {
		req.render.Transparent = true
	} else {
		c, err := raster.ParseColor(bg)
		if err != nil {
			return nil, err
		}
		req.render.Background = c
		req.encode.Background = c
	}
	req.render.Fragment = q.Get("fragment")

	req.key = []string{req.typ.String(), q.Get("width"), q.Get("height"), q.Get("aoi"),
		strconv.FormatFloat(req.encode.Quality, 'g', -1, 64), bg, req.render.Fragment,
		fmt.Sprintf("%gx%g", req.render.Viewport.Width, req.render.Viewport.Height)}
	return req, nil
}

func parseDimension(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: dimension %q", errBadRequest, v)
	}
	return &f, nil
}

// Render endpoint. The body is the SVG document.
func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		formatError(w, fmt.Errorf("failed to read body: %w", err))
		return
	}
	req, err := s.parseRequest(r)
	if err != nil {
		formatError(w, err)
		return
	}

	key := cache.Key(body, req.key...)
	if s.cache != nil {
		if data, err := s.cache.Get(key); err == nil {
			s.logger.Debug("cache hit", zap.String("key", key))
			writeImage(w, req.typ, data, "HIT")
			return
		}
	}

	doc, err := api.OpenBytes(body)
	if err != nil {
		formatError(w, err)
		return
	}
	doc.SetLogger(s.logger)

	var buf bytes.Buffer
	if err := doc.Export(&buf, req.typ, req.render, req.encode); err != nil {
		formatError(w, err)
		return
	}

	if s.cache != nil {
		if err := s.cache.Set(key, buf.Bytes()); err != nil {
			s.logger.Warn("failed to cache render", zap.Error(err))
		}
	}
	writeImage(w, req.typ, buf.Bytes(), "MISS")
}

func writeImage(w http.ResponseWriter, typ destination.Type, data []byte, cacheStatus string) {
	w.Header().Set("Content-Type", typ.MIMEType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type health struct {
	Status string       `json:"status"`
	Cache  *cache.Stats `json:"cache,omitempty"`
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	h := health{Status: "ok"}
	if s.cache != nil {
		stats := s.cache.Stats()
		h.Cache = &stats
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) purge(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		if err := s.cache.Purge(); err != nil {
			formatError(w, err)
			return
		}
	}
	s.logger.Info("cache purged")
	writeJSON(w, http.StatusOK, health{Status: "purged"})
}

// callerErrors are answered with 400.
var callerErrors = []error{
	errBadRequest,
	config.ErrSizeLimit,
	api.ErrOutputTooLarge,
	svg.ErrNotSVG,
	svg.ErrInvalidLength,
	svg.ErrInvalidViewBox,
	svg.ErrInvalidPreserveAspectRatio,
	svg.ErrFragmentNotFound,
	svg.ErrInvalidFragment,
	viewport.ErrInvalidDocumentSize,
	viewport.ErrInvalidRequestedSize,
	viewport.ErrDegenerateAreaOfInterest,
	destination.ErrUnknownType,
	destination.ErrInvalidQuality,
	graphics.ErrInvalidRect,
	raster.ErrInvalidColor,
}

func statusFor(err error) int {
	for _, target := range callerErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	var syntax *xml.SyntaxError
	if errors.As(err, &syntax) {
		return http.StatusBadRequest
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// Return a given error in JSON format to the ResponseWriter
func formatError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
