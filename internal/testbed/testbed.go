// Package testbed is a small target server for exercising dispatches: it
// serves a form page and static files, accepts uploads, deletes files and
// echoes requests back as JSON.
package testbed

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/raysh454/formfetch/internal/logging"
)

//go:embed www
var embedded embed.FS

// maxUploadBytes bounds both uploads and echoed bodies.
const maxUploadBytes = 32 << 20

// Server is the testbed HTTP handler.
type Server struct {
	cfg    Config
	logger logging.Logger
	assets fs.FS
}

// New returns a testbed for cfg. Files missing from the document root fall
// back to the built-in form page assets.
func New(cfg Config, logger logging.Logger) *Server {
	assets, _ := fs.Sub(embedded, "www")
	return &Server{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "testbed"}),
		assets: assets,
	}
}

// Start listens on cfg.Port until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.logger.Info("testbed listening",
		logging.Field{Key: "addr", Value: ln.Addr().String()},
		logging.Field{Key: "document_root", Value: s.cfg.DocumentRoot})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("http_request",
		logging.Field{Key: "method", Value: r.Method},
		logging.Field{Key: "path", Value: r.URL.Path})

	if r.URL.Path == "/echo" {
		s.handleEcho(w, r)
		return
	}
	if rel, ok := strings.CutPrefix(r.URL.Path, "/wasm/"); ok {
		s.handleWasm(w, r, rel)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleStatic(w, r)
	case http.MethodPost:
		if r.URL.Path == "/upload" {
			s.handleUpload(w, r)
			return
		}
		writeError(w, http.StatusMethodNotAllowed)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed)
	}
}

// writeError writes a minimal HTML error page.
func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Connection", "close")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "<html><body><h1>%d %s</h1></body></html>", status, http.StatusText(status))
}

// localPath maps a URL path into the document root. The result never escapes
// the root.
func (s *Server) localPath(urlPath string) (rel, full string) {
	rel = strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	return rel, filepath.Join(s.cfg.DocumentRoot, filepath.FromSlash(rel))
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	urlPath := r.URL.Path
	if urlPath == "/" {
		urlPath = "/index.html"
	}
	rel, full := s.localPath(urlPath)

	data, err := readRegular(os.DirFS(s.cfg.DocumentRoot), rel, full)
	if errors.Is(err, fs.ErrNotExist) {
		data, err = readRegular(s.assets, rel, rel)
	}
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("reading static file",
				logging.Field{Key: "path", Value: rel},
				logging.Field{Key: "error", Value: err.Error()})
		}
		writeError(w, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", MimeType(rel))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleWasm serves the WebAssembly build from cfg.WasmDir. Without one
// every /wasm/ path is missing and the page keeps its script dispatcher.
func (s *Server) handleWasm(w http.ResponseWriter, r *http.Request, rel string) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed)
		return
	}
	if s.cfg.WasmDir == "" {
		writeError(w, http.StatusNotFound)
		return
	}
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	data, err := readRegular(os.DirFS(s.cfg.WasmDir), rel, rel)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("reading wasm asset",
				logging.Field{Key: "path", Value: rel},
				logging.Field{Key: "error", Value: err.Error()})
		}
		writeError(w, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", MimeType(rel))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(data)
	}
}

// readRegular reads name from fsys, treating directories as missing.
func readRegular(fsys fs.FS, name, display string) ([]byte, error) {
	if name == "" {
		return nil, fs.ErrNotExist
	}
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", display, fs.ErrNotExist)
	}
	return fs.ReadFile(fsys, name)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest)
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeError(w, http.StatusBadRequest)
			return
		}
		name := filepath.Base(part.FileName())
		if part.FileName() == "" || name == "." || name == string(filepath.Separator) {
			_ = part.Close()
			continue
		}

		if err := os.MkdirAll(s.cfg.UploadsDir, 0o755); err != nil {
			s.logger.Error("creating uploads dir", logging.Field{Key: "error", Value: err.Error()})
			writeError(w, http.StatusInternalServerError)
			return
		}
		dst := filepath.Join(s.cfg.UploadsDir, name)
		if err := writeFile(dst, part); err != nil {
			s.logger.Error("saving upload",
				logging.Field{Key: "file", Value: dst},
				logging.Field{Key: "error", Value: err.Error()})
			writeError(w, http.StatusInternalServerError)
			return
		}
		s.logger.Info("file uploaded", logging.Field{Key: "file", Value: dst})

		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "<html><body><h1>File uploaded successfully!</h1></body></html>")
		return
	}
	writeError(w, http.StatusBadRequest)
}

func writeFile(dst string, src io.Reader) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	rel, full := s.localPath(r.URL.Path)
	if rel == "" {
		writeError(w, http.StatusBadRequest)
		return
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		writeError(w, http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError)
		return
	}
	if !info.Mode().IsRegular() {
		writeError(w, http.StatusBadRequest)
		return
	}
	if err := os.Remove(full); err != nil {
		s.logger.Error("deleting file",
			logging.Field{Key: "file", Value: full},
			logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError)
		return
	}
	s.logger.Info("file deleted", logging.Field{Key: "file", Value: full})

	w.Header().Set("Content-Type", MimeType(rel))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Resource successfully deleted\r\n")
}

// Echo is the body of every /echo response.
type Echo struct {
	Method  string              `json:"method"`
	Path    string              `json:"path"`
	Query   map[string][]string `json:"query,omitempty"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body"`
	// JSON is the parsed body when it is valid JSON.
	JSON json.RawMessage `json:"json,omitempty"`
}

func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge)
		return
	}
	out := Echo{
		Method:  r.Method,
		Path:    r.URL.Path,
		Headers: r.Header,
		Body:    string(body),
	}
	if q := r.URL.Query(); len(q) > 0 {
		out.Query = q
	}
	if len(body) > 0 && json.Valid(body) {
		out.JSON = body
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)
}
