package http

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/fwojciec/readinglist"
)

// ShutdownTimeout is the time the server waits for in-flight requests
// to finish during Close.
const ShutdownTimeout = 5 * time.Second

// maxContentRunes bounds the extracted text returned by the scrape
// endpoint, counted in runes.
const maxContentRunes = 10000

// Processor coordinates asynchronous processing of submitted URLs.
// Implemented by pipeline.Processor.
type Processor interface {
	// Submit validates a URL, records a pending item and starts
	// processing it in the background.
	Submit(ctx context.Context, url string) (*readinglist.Item, error)

	// Cancel aborts in-flight processing of the item with the given
	// ID. It reports whether a submission was actually cancelled.
	Cancel(id string) bool

	// Remove cancels any in-flight processing and deletes the item.
	Remove(ctx context.Context, id string) error

	// Clear cancels all in-flight processing and deletes all items.
	Clear(ctx context.Context) error
}

// Server exposes the reading-list API over HTTP.
type Server struct {
	ln     net.Listener
	server *http.Server
	router chi.Router

	// Bind address for the server's listener.
	Addr string

	Processor   Processor
	ItemService readinglist.ItemService
	Fetcher     readinglist.Fetcher
	Extractor   readinglist.Extractor
	Summarizer  readinglist.Summarizer

	Logger zerolog.Logger
}

// NewServer returns a new instance of Server with its routes
// registered. The caller is expected to set the service fields before
// calling Open.
func NewServer() *Server {
	s := &Server{
		server: &http.Server{},
		router: chi.NewRouter(),
		Logger: zerolog.Nop(),
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/scrape-url", s.handleScrapeURL)
		r.Post("/summarize", s.handleSummarize)

		r.Route("/items", func(r chi.Router) {
			r.Post("/", s.handleSubmitItem)
			r.Get("/", s.handleListItems)
			r.Delete("/", s.handleClearItems)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetItem)
				r.Post("/cancel", s.handleCancelItem)
				r.Delete("/", s.handleDeleteItem)
			})
		})
	})

	s.server.Handler = s.router

	return s
}

// Open begins listening on the bind address and serves requests in a
// separate goroutine.
func (s *Server) Open() (err error) {
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(s.ln); err != nil && err != http.ErrServerClosed {
			s.Logger.Error().Err(err).Msg("http server stopped")
		}
	}()
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// ServeHTTP dispatches to the server's router. It allows the server to
// be used directly as a handler in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// logRequests emits one structured log line per completed request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type scrapeURLRequest struct {
	URL string `json:"url"`
}

type scrapeURLResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleScrapeURL fetches a page and returns its extracted plain text
// without recording an item.
func (s *Server) handleScrapeURL(w http.ResponseWriter, r *http.Request) {
	var req scrapeURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, readinglist.Errorf(readinglist.EINVALID, "Valid URL is required"))
		return
	}
	if err := readinglist.ValidateURL(req.URL); err != nil {
		s.writeError(w, r, err)
		return
	}

	html, err := s.Fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	content := s.Extractor.Extract(html)
	if content == "" {
		s.writeError(w, r, readinglist.Errorf(readinglist.EINVALID, "No readable content found in the URL"))
		return
	}

	s.writeJSON(w, r, http.StatusOK, scrapeURLResponse{
		Success: true,
		Content: truncateRunes(content, maxContentRunes),
	})
}

type summarizeRequest struct {
	Content string `json:"content"`
	URL     string `json:"url"`
}

type summarizeResponse struct {
	Success bool     `json:"success"`
	Summary string   `json:"summary,omitempty"`
	Topics  []string `json:"topics,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// handleSummarize summarizes caller-supplied text without recording an
// item.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, readinglist.Errorf(readinglist.EINVALID, "Valid content is required"))
		return
	}

	result, err := s.Summarizer.Summarize(r.Context(), req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	topics := result.Topics
	if topics == nil {
		topics = []string{}
	}
	s.writeJSON(w, r, http.StatusOK, summarizeResponse{
		Success: true,
		Summary: result.Summary,
		Topics:  topics,
	})
}

type submitItemRequest struct {
	URL string `json:"url"`
}

// handleSubmitItem records a pending item and starts processing it in
// the background. It replies before processing completes.
func (s *Server) handleSubmitItem(w http.ResponseWriter, r *http.Request) {
	var req submitItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, readinglist.Errorf(readinglist.EINVALID, "Valid URL is required"))
		return
	}

	item, err := s.Processor.Submit(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusAccepted, item)
}

type listItemsResponse struct {
	Items []*readinglist.Item `json:"items"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.ItemService.FindItems(r.Context(), readinglist.ItemFilter{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*readinglist.Item{}
	}
	s.writeJSON(w, r, http.StatusOK, listItemsResponse{Items: items})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.ItemService.FindItemByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, item)
}

type successResponse struct {
	Success bool `json:"success"`
}

// handleCancelItem aborts in-flight processing of an item. The item is
// removed rather than marked failed.
func (s *Server) handleCancelItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.Processor.Cancel(id) {
		s.writeJSON(w, r, http.StatusOK, successResponse{Success: true})
		return
	}

	// Nothing was in flight. Distinguish an unknown item from one
	// that already reached a terminal status.
	if _, err := s.ItemService.FindItemByID(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeError(w, r, readinglist.Errorf(readinglist.ECONFLICT, "item is not pending"))
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.Processor.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearItems(w http.ResponseWriter, r *http.Request) {
	if err := s.Processor.Clear(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeError maps an application error to an HTTP status and writes it
// in the standard error envelope.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := readinglist.ErrorCode(err)
	if code == readinglist.EINTERNAL {
		s.Logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("internal error")
	}
	s.writeJSON(w, r, errorStatus(err), errorResponse{Error: readinglist.ErrorMessage(err)})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("write response")
	}
}

// errorStatus translates application error codes to HTTP status codes.
// Upstream errors forward the status reported by the remote service.
func errorStatus(err error) int {
	switch readinglist.ErrorCode(err) {
	case readinglist.EINVALID:
		return http.StatusBadRequest
	case readinglist.ECONFLICT:
		return http.StatusConflict
	case readinglist.ENOTFOUND:
		return http.StatusNotFound
	case readinglist.ETIMEOUT:
		return http.StatusRequestTimeout
	case readinglist.EUPSTREAM:
		if status := readinglist.ErrorStatus(err); status != 0 {
			return status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
