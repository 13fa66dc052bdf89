package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/alchemorsel/recipeclient/internal/domain/client"
	"go.uber.org/zap"
)

// maxClientLogBody bounds a single audit record.
const maxClientLogBody = 64 << 10

// ClientLogWriter appends audit records to a file, one JSON object per line.
type ClientLogWriter struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewClientLogWriter creates a writer for path. The file and its directory
// are created on first append.
func NewClientLogWriter(path string, logger *zap.Logger) *ClientLogWriter {
	return &ClientLogWriter{
		path:   path,
		logger: logger.Named("client-log"),
	}
}

// Path returns the log file location.
func (w *ClientLogWriter) Path() string {
	return w.path
}

// Append writes event as one line.
func (w *ClientLogWriter) Append(event client.ClientEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal client event: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open client log: %w", err)
	}

	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("failed to write client log: %w", err)
	}
	return f.Close()
}

// handleClientLog receives an audit record from a client and appends it.
func (s *WebServer) handleClientLog(w http.ResponseWriter, r *http.Request) {
	var event client.ClientEvent

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClientLogBody))
	dec.UseNumber()
	if err := dec.Decode(&event); err != nil {
		s.logger.Debug("Rejected client event", zap.Error(err))
		http.Error(w, "Invalid client event", http.StatusBadRequest)
		return
	}

	if err := s.clientLog.Append(event); err != nil {
		s.logger.Error("Failed to write client log", zap.Error(err))
		writeText(w, http.StatusInternalServerError, "Failed to write client log")
		return
	}

	writeText(w, http.StatusCreated, "logged")
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
