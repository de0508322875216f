package httpapi

import (
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"
)

type accessEntry struct {
	Time       time.Time `json:"time"`
	Caller     string    `json:"caller"`
	Path       string    `json:"path"`
	Method     string    `json:"method"`
	Status     int       `json:"status"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
}

// accessLog keeps a bounded in-memory window of request records and forwards
// each one to an optional sink.
type accessLog struct {
	mu      sync.Mutex
	entries []accessEntry
	max     int
	sink    accessSink
}

type accessSink interface {
	Write(entry accessEntry) error
}

func newAccessLog(max int, sink accessSink) *accessLog {
	if max <= 0 {
		max = 200
	}
	return &accessLog{max: max, sink: sink}
}

func (l *accessLog) add(entry accessEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	if l.sink != nil {
		// Best-effort persistence; ignore errors to avoid impacting request flow.
		_ = l.sink.Write(entry)
	}
}

func (h *handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.access.add(accessEntry{
			Time:       time.Now().UTC(),
			Caller:     caller(r),
			Path:       r.URL.Path,
			Method:     r.Method,
			Status:     rec.status,
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
		})
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// fileAccessSink appends access entries as JSONL.
type fileAccessSink struct {
	mu   sync.Mutex
	file *os.File
}

func newFileAccessSink(path string) (*fileAccessSink, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, err
	}
	return &fileAccessSink{file: f}, nil
}

func (s *fileAccessSink) Write(entry accessEntry) error {
	if s == nil || s.file == nil {
		return nil
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.file.Write(append(b, '\n'))
	return err
}
