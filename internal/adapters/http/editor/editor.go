// Package editor serves the authenticated editing surface for the results
// document and the discipline icon map.
package editor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/okian/podium/internal/adapters/http/api"
	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/domain/auth"
	"github.com/okian/podium/internal/domain/icons"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/results"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

const defaultMaxBody = 10 << 20

//go:embed static/*
var staticFS embed.FS

// Document is a file the editor can read and replace.
type Document interface {
	Raw(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, v any) error
	Path() string
}

// Reloader schedules a snapshot rebuild.
type Reloader interface {
	Enqueue(ctx context.Context, reason model.Reason) bool
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

type saveResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Server is the editor listener.
type Server struct {
	results  Document
	icons    Document
	tokens   auth.Tokens
	reloader Reloader
	limiter  *rate.Limiter
	validate *validator.Validate

	user         string
	passwordHash string
	maxBody      int64

	logger logger.Logger
}

// NewServer creates an editor for the results and icon documents.
func NewServer(resultsDoc, iconsDoc Document, opts ...Option) *Server {
	s := &Server{
		results:  resultsDoc,
		icons:    iconsDoc,
		limiter:  rate.NewLimiter(1, 5),
		validate: validator.New(),
		maxBody:  defaultMaxBody,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tokens == nil {
		s.tokens = auth.NewInMemoryTokens()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("editor")
	}
	s.passwordHash = strings.ToLower(s.passwordHash)
	return s
}

// Register attaches the editor routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/api/login", api.MetricsMiddleware(s.HandleLogin, "editor_login"))
	mux.HandleFunc("/api/logout", api.MetricsMiddleware(s.requireAuth(s.HandleLogout), "editor_logout"))
	mux.HandleFunc("/api/results", api.MetricsMiddleware(s.requireAuth(s.HandleSaveResults), "editor_results"))
	mux.HandleFunc("/api/icons", api.MetricsMiddleware(s.requireAuth(s.HandleSaveIcons), "editor_icons"))
	mux.HandleFunc("/data/results.json", api.MetricsMiddleware(s.serveDocument(s.results), "editor_results_json"))
	mux.HandleFunc("/data/emojiMap.json", api.MetricsMiddleware(s.serveDocument(s.icons), "editor_icons_json"))

	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(sub)))
}

// HandleLogin handles POST /api/login requests.
func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !s.limiter.Allow() {
		metrics.RecordLoginAttempt("throttled")
		writeJSON(w, http.StatusTooManyRequests, loginResponse{Message: ErrThrottled.Error()})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(&req); err != nil {
		metrics.RecordLoginAttempt("bad_request")
		writeJSON(w, http.StatusBadRequest, loginResponse{Message: fmt.Sprintf("%v: %v", ErrLoginFailed, err)})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		metrics.RecordLoginAttempt("bad_request")
		writeJSON(w, http.StatusBadRequest, loginResponse{Message: ErrLoginFailed.Error()})
		return
	}
	if !s.checkCredentials(req.Username, req.Password) {
		metrics.RecordLoginAttempt("rejected")
		s.logger.Warn(ctx, "login rejected", logger.String("user", req.Username))
		writeJSON(w, http.StatusUnauthorized, loginResponse{Message: ErrLoginFailed.Error()})
		return
	}

	token, err := s.tokens.Issue(ctx)
	if err != nil {
		metrics.RecordLoginAttempt("error")
		s.logger.Error(ctx, "token issue failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, loginResponse{Message: err.Error()})
		return
	}
	metrics.RecordLoginAttempt("ok")
	s.logger.Info(ctx, "login", logger.String("user", req.Username))
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Token: token})
}

func (s *Server) checkCredentials(user, password string) bool {
	if s.user == "" || s.passwordHash == "" {
		return false
	}
	sum := sha256.Sum256([]byte(password))
	got := hex.EncodeToString(sum[:])
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(got), []byte(s.passwordHash)) == 1
	return userOK && passOK
}

// token extracts the session token from the Authorization header.
func token(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		h = strings.TrimSpace(h[7:])
	}
	return h
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if t := token(r); t == "" || !s.tokens.Valid(r.Context(), t) {
			writeJSON(w, http.StatusUnauthorized, loginResponse{Message: ErrUnauthorized.Error()})
			return
		}
		next(w, r)
	}
}

// HandleLogout handles POST /api/logout requests.
func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	s.tokens.Revoke(r.Context(), token(r))
	writeJSON(w, http.StatusOK, saveResponse{Success: true})
}

// HandleSaveResults handles POST /api/results requests. The body must be
// a JSON array whose first record carries every result field.
func (s *Server) HandleSaveResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := s.readBody(w, r)
	if err != nil {
		s.reject(w, "results", err)
		return
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		s.reject(w, "results", fmt.Errorf("%w: %v", ErrBadDocument, err))
		return
	}
	if err := results.Validate(doc); err != nil {
		s.reject(w, "results", fmt.Errorf("%w: %v", ErrBadDocument, err))
		return
	}

	if !s.save(ctx, w, "results", s.results, doc) {
		return
	}
	if s.reloader != nil {
		s.reloader.Enqueue(ctx, model.ReasonEditorSave)
	}
	writeJSON(w, http.StatusOK, saveResponse{Success: true})
}

// HandleSaveIcons handles POST /api/icons requests.
func (s *Server) HandleSaveIcons(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.reject(w, "icons", err)
		return
	}
	m, err := icons.Decode(body)
	if err != nil {
		s.reject(w, "icons", fmt.Errorf("%w: %v", ErrBadDocument, err))
		return
	}
	if !s.save(r.Context(), w, "icons", s.icons, m) {
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Success: true})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	return body, nil
}

func (s *Server) reject(w http.ResponseWriter, document string, err error) {
	metrics.RecordDocumentSave(document, "rejected")
	writeJSON(w, http.StatusBadRequest, saveResponse{Error: err.Error()})
}

func (s *Server) save(ctx context.Context, w http.ResponseWriter, document string, doc Document, v any) bool {
	if err := doc.Save(ctx, v); err != nil {
		metrics.RecordDocumentSave(document, "error")
		s.logger.Error(ctx, "save failed",
			logger.String("document", document),
			logger.String("path", doc.Path()),
			logger.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, saveResponse{Error: fmt.Errorf("%w: %v", ErrSave, err).Error()})
		return false
	}
	metrics.RecordDocumentSave(document, "ok")
	s.logger.Info(ctx, "document saved",
		logger.String("document", document),
		logger.String("path", doc.Path()),
	)
	return true
}

func (s *Server) serveDocument(doc Document) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		data, err := doc.Raw(r.Context())
		if err != nil {
			if errors.Is(err, source.ErrSourceNotFound) {
				http.NotFound(w, r)
				return
			}
			writeJSON(w, http.StatusInternalServerError, saveResponse{Error: err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(data)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
