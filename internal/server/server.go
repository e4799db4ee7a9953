// Package server implements the development server: it serves the built
// output tree and pushes a reload signal to connected browsers over a
// websocket after each successful repack.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/sitepack/sitepack/internal/config"
	"github.com/sitepack/sitepack/internal/logging"
)

// reloadSnippet is injected before </body> of served HTML so the browser
// reloads when a repack finishes.
const reloadSnippet = `<script>new WebSocket("ws://"+location.host+"/livereload").onmessage=function(){location.reload()};</script>`

// Server serves the output site root with live reload.
type Server struct {
	cfg    *config.Config
	logger logging.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New creates a Server.
func New(cfg *config.Config, logger logging.Logger) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger.WithComponent("server"),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/livereload", s.handleLiveReload)
	mux.HandleFunc("/", s.handleStatic)

	return mux
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "dev server listening", "addr", "http://"+s.Addr())

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// NotifyReload tells every connected browser to reload.
func (s *Server) NotifyReload(ctx context.Context) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.Write(ctx, websocket.MessageText, []byte("reload")); err != nil {
			s.logger.Debug(ctx, "dropping stale livereload client", "error", err.Error())
			s.removeClient(c)
		}
	}
}

func (s *Server) handleLiveReload(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket accept failed")

		return
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	// Hold the connection until the client goes away.
	ctx := r.Context()
	for {
		if _, _, err := c.Read(ctx); err != nil {
			break
		}
	}

	s.removeClient(c)
}

func (s *Server) removeClient(c *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	_ = c.Close(websocket.StatusNormalClosure, "")
}

// handleStatic serves files from the output site root, injecting the reload
// snippet into HTML responses.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	root := s.cfg.OutputSiteRoot()

	urlPath := r.URL.Path
	if strings.HasSuffix(urlPath, "/") {
		urlPath += "index.html"
	}

	full := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(urlPath, "/")))

	// Keep requests inside the output tree.
	if rel, err := filepath.Rel(root, full); err != nil || strings.HasPrefix(rel, "..") {
		http.NotFound(w, r)

		return
	}

	if strings.HasSuffix(full, ".html") {
		data, err := os.ReadFile(full)
		if err != nil {
			http.NotFound(w, r)

			return
		}

		page := string(data)
		if idx := strings.LastIndex(page, "</body>"); idx >= 0 {
			page = page[:idx] + reloadSnippet + page[idx:]
		} else {
			page += reloadSnippet
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))

		return
	}

	http.ServeFile(w, r, full)
}
