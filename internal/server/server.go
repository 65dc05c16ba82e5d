package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/formfetch/internal/dispatch"
	"github.com/raysh454/formfetch/internal/fields"
	"github.com/raysh454/formfetch/internal/history"
	"github.com/raysh454/formfetch/internal/logging"
	_ "github.com/raysh454/formfetch/internal/server/docs" // swagger docs
)

// wsTarget is the single output field shared by a websocket session.
const wsTarget = "wsResponse"

// Server is the HTTP + WebSocket API surface for formfetch.
type Server struct {
	cfg      Config
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer creates a new Server around cfg.Client.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Client == nil {
		return nil, errors.New("server: webclient is required")
	}
	if cfg.Variant.Render == nil {
		cfg.Variant = dispatch.VariantJSON
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:    cfg,
		router: r,
		logger: logger.With(logging.Field{Key: "component", Value: "server"}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}))

	r.Post("/dispatch/{method}", s.handleDispatch)

	r.Get("/history", s.handleListHistory)
	r.Get("/history/{id}", s.handleGetHistory)
	r.Get("/history/{id}/diff", s.handleDiffHistory)

	r.Get("/ws/dispatch/{method}", s.handleDispatchWS)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logFields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		logFields = append(logFields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			logFields = append(logFields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", logFields...)

	s.router.ServeHTTP(w, r)
}

// Close releases the webclient and the history store.
func (s *Server) Close() {
	if s.cfg.History != nil {
		_ = s.cfg.History.Close()
	}
	if s.cfg.Client != nil {
		_ = s.cfg.Client.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- Dispatch ---

func (s *Server) variantFor(name string) (dispatch.Variant, error) {
	if name == "" {
		return s.cfg.Variant, nil
	}
	return dispatch.ParseVariant(name)
}

func (s *Server) newDispatcher(v dispatch.Variant) *dispatch.Dispatcher {
	opts := []dispatch.Option{
		dispatch.WithVariant(v),
		dispatch.WithTimeout(s.cfg.Timeout),
		dispatch.WithOrdering(s.cfg.Ordering),
	}
	if s.cfg.History != nil {
		opts = append(opts, dispatch.WithObserver(s.cfg.History.Observer()))
	}
	return dispatch.New(s.cfg.Client, nil, s.logger, opts...)
}

func toResponse(task *dispatch.Task, res dispatch.Result) *DispatchResponse {
	out := &DispatchResponse{
		TaskID:     task.ID,
		Method:     task.Method,
		Target:     task.Target,
		Text:       res.Text,
		StatusCode: res.StatusCode,
		Written:    res.Written,
		Stale:      res.Stale,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// handleDispatch godoc
// @Summary Send one request
// @Description Sends METHOD to url with data as the JSON body when the variant carries one, and returns the text the response field would show. Upstream failures are reported in error and text, not as HTTP errors.
// @Tags dispatch
// @Accept json
// @Produce json
// @Param method path string true "HTTP method"
// @Param request body DispatchRequest true "Dispatch input"
// @Success 200 {object} DispatchResponse
// @Failure 400 {object} ErrorResponse
// @Router /dispatch/{method} [post]
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	method := chi.URLParam(r, "method")

	var body DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("decoding dispatch body", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	variant, err := s.variantFor(body.Variant)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := fields.NewText("")
	task, err := s.newDispatcher(variant).DispatchWith(r.Context(), method, dispatch.Binding{
		URL:      fields.Static(body.URL),
		Data:     fields.Static(body.Data),
		Response: out,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := task.Wait(r.Context())
	if err != nil {
		task.Cancel()
		s.logger.Warn("client left before dispatch finished", logging.Field{Key: "task_id", Value: task.ID})
		return
	}
	s.logger.Info("dispatched",
		logging.Field{Key: "task_id", Value: task.ID},
		logging.Field{Key: "status", Value: res.StatusCode})
	writeJSON(w, http.StatusOK, toResponse(task, res))
}

// --- History ---

func (s *Server) historyOrUnavailable(w http.ResponseWriter) *history.Store {
	if s.cfg.History == nil {
		writeError(w, http.StatusServiceUnavailable, "history is disabled")
	}
	return s.cfg.History
}

// handleListHistory godoc
// @Summary List finished dispatches
// @Tags history
// @Produce json
// @Param limit query int false "Maximum records, newest first" default(50)
// @Success 200 {array} history.Record
// @Failure 503 {object} ErrorResponse
// @Router /history [get]
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	store := s.historyOrUnavailable(w)
	if store == nil {
		return
	}
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}
	recs, err := store.List(r.Context(), limit)
	if err != nil {
		s.logger.Warn("listing history", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("listed history", logging.Field{Key: "count", Value: len(recs)})
	writeJSON(w, http.StatusOK, recs)
}

// handleGetHistory godoc
// @Summary Get one finished dispatch
// @Tags history
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} history.Record
// @Failure 404 {object} ErrorResponse
// @Router /history/{id} [get]
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	store := s.historyOrUnavailable(w)
	if store == nil {
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := store.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "dispatch not found")
		return
	}
	if err != nil {
		s.logger.Warn("getting history record", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDiffHistory godoc
// @Summary Diff two rendered outputs
// @Tags history
// @Produce json
// @Param id path string true "Head task ID"
// @Param against query string true "Base task ID"
// @Success 200 {object} history.Diff
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /history/{id}/diff [get]
func (s *Server) handleDiffHistory(w http.ResponseWriter, r *http.Request) {
	store := s.historyOrUnavailable(w)
	if store == nil {
		return
	}
	head := chi.URLParam(r, "id")
	base := r.URL.Query().Get("against")
	if base == "" {
		writeError(w, http.StatusBadRequest, "missing against query parameter")
		return
	}
	d, err := store.Diff(r.Context(), base, head)
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Warn("diffing history", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// --- WebSockets ---

// handleDispatchWS godoc
// @Summary Stream dispatches over a websocket
// @Description Each {url, data} message starts a dispatch of METHOD. All dispatches of a session write one shared field, so a result overtaken by a newer dispatch arrives with stale set.
// @Tags dispatch
// @Param method path string true "HTTP method"
// @Param variant query string false "json or text"
// @Router /ws/dispatch/{method} [get]
func (s *Server) handleDispatchWS(w http.ResponseWriter, r *http.Request) {
	method := chi.URLParam(r, "method")
	variant, err := s.variantFor(r.URL.Query().Get("variant"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	d := s.newDispatcher(variant)
	out := fields.NewText("")

	var writeMu sync.Mutex
	send := func(ev WSEvent) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(ev)
	}

	s.logger.Info("websocket session started", logging.Field{Key: "method", Value: method})
	for {
		var msg WSDispatchMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", logging.Field{Key: "error", Value: err.Error()})
			}
			break
		}

		task, err := d.DispatchWith(ctx, method, dispatch.Binding{
			URL:      fields.Static(msg.URL),
			Data:     fields.Static(msg.Data),
			Response: out,
			Target:   wsTarget,
		})
		if err != nil {
			_ = send(WSEvent{Type: "error", Error: err.Error()})
			continue
		}
		if err := send(WSEvent{Type: "started", TaskID: task.ID}); err != nil {
			task.Cancel()
			break
		}
		go func() {
			res, err := task.Wait(ctx)
			if err != nil {
				return
			}
			_ = send(WSEvent{Type: "result", TaskID: task.ID, Result: toResponse(task, res)})
		}()
	}

	// Client disconnected; abandon in-flight dispatches.
	cancel()
	d.Wait()
	s.logger.Info("websocket session ended", logging.Field{Key: "method", Value: method})
}
