package browser

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// documentServer hands page markup to browser tabs over loopback so that
// a real navigation happens and network lifecycle events are reported.
type documentServer struct {
	mu   sync.RWMutex
	docs map[string]string

	srv  *http.Server
	base string
	log  *zap.Logger
}

func startDocumentServer(log *zap.Logger) (*documentServer, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("unable to listen on loopback: %w", err)
	}
	s := &documentServer{
		docs: make(map[string]string),
		base: "http://" + ln.Addr().String() + "/",
		log:  log,
	}
	s.srv = &http.Server{
		Handler:  s,
		ErrorLog: zap.NewStdLog(log),
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Document server stopped", zap.Error(err))
		}
	}()
	return s, nil
}

// publish makes html available under new unique url until remove is called.
func (s *documentServer) publish(html string) (url string, remove func()) {
	id := uuid.NewString()

	s.mu.Lock()
	s.docs[id] = html
	s.mu.Unlock()

	return s.base + id, func() {
		s.mu.Lock()
		delete(s.docs, id)
		s.mu.Unlock()
	}
}

func (s *documentServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	html, ok := s.docs[strings.TrimPrefix(r.URL.Path, "/")]
	s.mu.RUnlock()

	if !ok || r.Method != http.MethodGet {
		s.log.Debug("Resource is not served", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, html)
}

func (s *documentServer) close() error {
	return s.srv.Close()
}
