package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/sebu-dev/sebu/pkg/config"
	"github.com/sebu-dev/sebu/pkg/csv"
	"github.com/sebu-dev/sebu/pkg/models"
	"github.com/sebu-dev/sebu/pkg/ofx"
	"github.com/sebu-dev/sebu/pkg/parser"
)

// Server handles HTTP requests for statement conversion.
type Server struct {
	config   *config.Config
	logger   *log.Logger
	mux      *http.ServeMux
	registry *parser.Registry
	routes   sync.Once
	files    sync.Map
}

// New creates a new HTTP server.
func New(cfg *config.Config, logger *log.Logger) *Server {
	return &Server{
		config:   cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
		registry: parser.NewRegistry(logger),
	}
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/convert", s.withLogging(s.handleConvert))
	s.mux.HandleFunc("/api/files/", s.withLogging(s.handleFiles))
}

// Handler returns the configured mux.
func (s *Server) Handler() http.Handler {
	s.routes.Do(s.setupRoutes)
	return s.mux
}

// statementJSON is the summary part of a conversion response.
type statementJSON struct {
	AccountID  string `json:"account_id"`
	BankID     string `json:"bank_id"`
	Currency   string `json:"currency"`
	EndBalance string `json:"end_balance"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// transactionJSON is a simplified statement line for JSON responses.
type transactionJSON struct {
	Date     string `json:"date"`
	ID       string `json:"id"`
	Memo     string `json:"memo"`
	Amount   string `json:"amount"`
	DateUser string `json:"date_user,omitempty"`
}

// handleConvert accepts a multipart statement upload, converts it and
// stores the converted document for download via /api/files/.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	file, header, err := r.FormFile("statement")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "statement file required", err)
		return
	}
	defer file.Close()

	plugin := s.registry.Detect(header.Filename)
	if plugin == nil {
		s.respondError(w, r, http.StatusBadRequest, "unsupported file type", nil)
		return
	}

	sp, err := plugin.Open(file)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to parse statement", err)
		return
	}
	defer sp.Close()

	lines, err := drain(sp)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to parse statement", err)
		return
	}
	stmt := sp.Statement()

	filename := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename)) + "-sebu." + s.config.Format
	var out bytes.Buffer
	switch s.config.Format {
	case "csv":
		out.Write(csv.Create(lines, nil))
	default:
		if err := ofx.Write(&out, stmt, lines); err != nil {
			s.respondError(w, r, http.StatusInternalServerError, "failed to render statement", err)
			return
		}
	}
	s.files.Store(filename, out.Bytes())

	txs := make([]transactionJSON, len(lines))
	for i, l := range lines {
		txs[i] = transactionJSON{
			Date:   l.Date.Format("2006-01-02"),
			ID:     l.ID,
			Memo:   l.Memo,
			Amount: l.Amount.StringFixed(2),
		}
		if l.DateUser != nil {
			txs[i].DateUser = l.DateUser.Format("2006-01-02")
		}
	}

	s.logger.Info("converted statement", "file", header.Filename, "records", len(lines))

	if err := s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"file":   filename,
		"statement": statementJSON{
			AccountID:  stmt.AccountID,
			BankID:     stmt.BankID,
			Currency:   stmt.Currency,
			EndBalance: stmt.EndBalance.StringFixed(2),
			StartDate:  stmt.StartDate.Format("2006-01-02"),
			EndDate:    stmt.EndDate.Format("2006-01-02"),
		},
		"data": txs,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// handleFiles serves a previously converted document.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	filename := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if filename == "" {
		s.respondError(w, r, http.StatusBadRequest, "filename required", nil)
		return
	}

	value, ok := s.files.Load(filename)
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "file not found", nil)
		return
	}
	data, ok := value.([]byte)
	if !ok {
		s.respondError(w, r, http.StatusInternalServerError, "internal type assertion error", nil)
		return
	}

	contentType := "application/x-ofx"
	if strings.HasSuffix(filename, ".csv") {
		contentType = "text/csv"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("failed to write file response", "err", err)
	}
}

func drain(sp parser.StatementParser) ([]*models.StatementLine, error) {
	var lines []*models.StatementLine
	for {
		line, err := sp.Next()
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
}

// --- helpers ---

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging wraps a handler to log requests and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}
