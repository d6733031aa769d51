// Package server exposes the REST surface over the application core.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"realsociety/internal/ai"
	"realsociety/internal/app"
	"realsociety/internal/domain"
	"realsociety/internal/ratelimit"
	"realsociety/internal/store"
	"realsociety/internal/token"
	"realsociety/internal/util"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App    *app.App
	Tokens *token.Issuer

	// RedisAddr enables distributed rate limiting; without it no limits apply.
	RedisAddr             string
	RedisPassword         string
	SignupRateLimitPerMin int
	LoginRateLimitPerMin  int
	AIRateLimitPerMin     int
	MaxPhotoUploadBytes   int64
	TrustedProxies        []string
}

// Server exposes HTTP endpoints for the backend.
type Server struct {
	app            *app.App
	tokens         *token.Issuer
	mux            *http.ServeMux
	maxPhotoBytes  int64
	trustedProxies *util.TrustedProxies
	signupLimiter  *ratelimit.FixedWindowLimiter
	loginLimiter   *ratelimit.FixedWindowLimiter
	aiLimiter      *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, fmt.Errorf("application core required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token issuer required")
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxies: %w", err)
	}
	s := &Server{
		app:            cfg.App,
		tokens:         cfg.Tokens,
		mux:            http.NewServeMux(),
		maxPhotoBytes:  normalizeMaxBytes(cfg.MaxPhotoUploadBytes),
		trustedProxies: trusted,
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		rateWindow := time.Minute
		newLimiter := func(name string, limit, fallback int) (*ratelimit.FixedWindowLimiter, error) {
			if limit <= 0 {
				limit = fallback
			}
			prefix := "realsociety:ratelimit:" + name
			limiter, err := ratelimit.NewFixedWindowLimiter(client, prefix, limit, rateWindow)
			if err != nil {
				return nil, fmt.Errorf("init %s limiter: %w", name, err)
			}
			return limiter, nil
		}
		if s.signupLimiter, err = newLimiter("signup", cfg.SignupRateLimitPerMin, 5); err != nil {
			return nil, err
		}
		if s.loginLimiter, err = newLimiter("login", cfg.LoginRateLimitPerMin, 10); err != nil {
			return nil, err
		}
		if s.aiLimiter, err = newLimiter("ai", cfg.AIRateLimitPerMin, 30); err != nil {
			return nil, err
		}
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/signup", s.handleSignup)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)

	// account
	s.mux.Handle("/api/user/profile", s.authenticated(s.handleProfile))
	s.mux.Handle("/api/user/photo", s.authenticated(s.handlePhoto))
	s.mux.Handle("/api/user/upgrade", s.authenticated(s.handleUpgrade))
	s.mux.Handle("/api/user/usage", s.authenticated(s.handleUsage))

	// notes & activities
	s.mux.Handle("/api/notes", s.authenticated(s.handleNotes))
	s.mux.Handle("/api/notes/", s.authenticated(s.handleNoteByID))
	s.mux.Handle("/api/activities", s.authenticated(s.handleActivities))

	// feeds & assistant
	s.mux.Handle("/api/youtube/videos", s.authenticated(s.handleVideos))
	s.mux.Handle("/api/ai/chat", s.authenticated(s.handleAIChat))
	s.mux.Handle("/api/ai/note", s.authenticated(s.handleAINote))
	s.mux.Handle("/api/ai/summary", s.authenticated(s.handleAISummary))
	s.mux.Handle("/api/ai/suggestions", s.authenticated(s.handleAISuggestions))
	s.mux.Handle("/api/ai/speech", s.authenticated(s.handleAISpeech))

	// friends
	s.mux.Handle("/api/friends", s.authenticated(s.handleFriends))
	s.mux.Handle("/api/friends/requests", s.authenticated(s.handleFriendRequests))
	s.mux.Handle("/api/friends/requests/", s.authenticated(s.handleFriendRequestByID))

	// admin
	s.mux.Handle("/api/admin/users", s.adminOnly(s.handleAdminUsers))
	s.mux.Handle("/api/admin/users/", s.adminOnly(s.handleAdminUserByID))
	s.mux.Handle("/api/admin/stats", s.adminOnly(s.handleAdminStats))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, token.Claims)

// authenticated rejects requests without a bearer token with 401 and requests
// with an unverifiable one with 403.
func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			s.audit(r, "token.verify", "fail", "reason", "missing_token")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		claims, err := s.tokens.Verify(raw)
		if err != nil {
			s.audit(r, "token.verify", "fail", "reason", "invalid_signature_or_claims")
			writeError(w, http.StatusForbidden, "invalid token")
			return
		}
		next(w, r, claims)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, claims token.Claims) {
		if claims.Role != domain.RoleAdmin {
			s.audit(r, "admin.authorize", "fail", "user_id", claims.UserID, "reason", "forbidden")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		s.audit(r, "admin.authorize", "success", "user_id", claims.UserID)
		next(w, r, claims)
	})
}

// auth handlers
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.signupLimiter, "too many signup attempts") {
		s.audit(r, "signup", "rate_limited")
		return
	}
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.audit(r, "signup", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, signed, err := s.app.SignUp(req.Email, req.Password, req.Name)
	if err != nil {
		s.audit(r, "signup", "fail", "reason", err.Error())
		writeAppError(w, err)
		return
	}
	s.audit(r, "signup", "success", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{Token: signed, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "login", "rate_limited")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.audit(r, "login", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, signed, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		s.audit(r, "login", "fail", "reason", err.Error())
		writeAppError(w, err)
		return
	}
	s.audit(r, "login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse{Token: signed, User: user})
}

// account handlers
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	switch r.Method {
	case http.MethodGet:
		user, err := s.app.Profile(claims.UserID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		var req profileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		// The profile is a whole-field overwrite with no validation;
		// an empty name is a legal value.
		update := store.ProfileUpdate{
			Name:           strings.TrimSpace(req.Name),
			Bio:            req.Bio,
			ProfilePhoto:   req.ProfilePhoto,
			YouTubeChannel: strings.TrimSpace(req.YouTubeChannel),
		}
		if err := s.app.UpdateProfile(claims.UserID, update); err != nil {
			writeAppError(w, err)
			return
		}
		user, err := s.app.Profile(claims.UserID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.maxPhotoBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxPhotoBytes)
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo is required (field: photo)")
		return
	}
	defer file.Close()
	url, err := s.app.UploadPhoto(r.Context(), claims.UserID, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"profile_photo": url})
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req upgradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	plan, err := s.app.UpgradePlan(claims.UserID, req.Plan)
	if err != nil {
		writeAppError(w, err)
		return
	}
	s.audit(r, "plan.upgrade", "success", "user_id", claims.UserID, "plan", string(plan))
	writeJSON(w, http.StatusOK, map[string]string{"plan": string(plan)})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	usage, err := s.app.Usage(claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

// note handlers
func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	switch r.Method {
	case http.MethodGet:
		notes, err := s.app.ListNotes(claims.UserID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, notes)
	case http.MethodPost:
		var req noteRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		note, err := s.app.CreateNote(claims.UserID, app.CreateNoteInput{
			Title:    req.Title,
			Content:  req.Content,
			Secret:   req.Secret,
			Password: req.Password,
			Kind:     req.Kind,
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, note)
	default:
		methodNotAllowed(w)
	}
}

// /api/notes/{id} and /api/notes/{id}/unlock
func (s *Server) handleNoteByID(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	path := strings.TrimPrefix(r.URL.Path, "/api/notes/")
	parts := strings.SplitN(path, "/", 2)
	id, err := parseID(parts[0])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if len(parts) == 2 {
		if parts[1] != "unlock" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req unlockRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		content, err := s.app.UnlockNote(claims.UserID, id, req.Password)
		if err != nil {
			s.audit(r, "note.unlock", "fail", "user_id", claims.UserID, "note_id", id, "reason", err.Error())
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"content": content})
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.DeleteNote(claims.UserID, id); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	switch r.Method {
	case http.MethodGet:
		activities, err := s.app.RecentActivities(claims.UserID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, activities)
	case http.MethodPost:
		var req activityRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		activity, err := s.app.LogActivity(claims.UserID, req.Action, req.Details, req.Metadata)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, activity)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	videos, mock, err := s.app.Videos(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"videos": videos, "isMock": mock})
}

// assistant handlers
func (s *Server) handleAIChat(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.aiLimiter, "too many assistant requests") {
		s.audit(r, "ai.chat", "rate_limited", "user_id", claims.UserID)
		return
	}
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reply, err := s.app.Chat(r.Context(), claims.UserID, req.Prompt, req.History, req.Context)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleAINote(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.aiLimiter, "too many assistant requests") {
		return
	}
	var req promptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	content, err := s.app.GenerateNote(r.Context(), claims.UserID, req.Prompt)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (s *Server) handleAISummary(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.aiLimiter, "too many assistant requests") {
		return
	}
	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	summary, err := s.app.Summarize(r.Context(), claims.UserID, req.Content)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) handleAISuggestions(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.aiLimiter, "too many assistant requests") {
		return
	}
	var req suggestionsRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	suggestions, err := s.app.Suggestions(r.Context(), claims.UserID, req.Activity)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *Server) handleAISpeech(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.aiLimiter, "too many assistant requests") {
		return
	}
	var req speechRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	speech, err := s.app.Speak(r.Context(), claims.UserID, req.Text)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, speech)
}

// friend handlers
func (s *Server) handleFriends(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	view, err := s.app.Friends(claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleFriendRequests(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req friendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	link, err := s.app.RequestFriend(claims.UserID, req.Email)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

// /api/friends/requests/{id}/accept
func (s *Server) handleFriendRequestByID(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	path := strings.TrimPrefix(r.URL.Path, "/api/friends/requests/")
	parts := strings.SplitN(path, "/", 2)
	id, err := parseID(parts[0])
	if err != nil || len(parts) != 2 || parts[1] != "accept" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	link, err := s.app.AcceptFriend(claims.UserID, id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// admin handlers
func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, _ token.Claims) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	users, err := s.app.AdminListUsers()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": users,
		"count": len(users),
	})
}

// /api/admin/users/{id}
func (s *Server) handleAdminUserByID(w http.ResponseWriter, r *http.Request, claims token.Claims) {
	raw := strings.TrimPrefix(r.URL.Path, "/api/admin/users/")
	id, err := parseID(raw)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.AdminDeleteUser(id); err != nil {
		writeAppError(w, err)
		return
	}
	s.audit(r, "admin.user.delete", "success", "admin_id", claims.UserID, "user_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request, _ token.Claims) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	stats, err := s.app.Stats()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// request/response payloads
type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type profileRequest struct {
	Name           string `json:"name"`
	Bio            string `json:"bio"`
	ProfilePhoto   string `json:"profile_photo"`
	YouTubeChannel string `json:"youtube_channel"`
}

type upgradeRequest struct {
	Plan string `json:"plan"`
}

type noteRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Secret   bool   `json:"is_secret"`
	Password string `json:"password"`
	Kind     string `json:"type"`
}

type unlockRequest struct {
	Password string `json:"password"`
}

type activityRequest struct {
	Action   string            `json:"action"`
	Details  string            `json:"details"`
	Metadata map[string]string `json:"metadata"`
}

type chatRequest struct {
	Prompt  string    `json:"prompt"`
	History []ai.Turn `json:"history"`
	Context string    `json:"context"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type suggestionsRequest struct {
	Activity string `json:"activity"`
}

type speechRequest struct {
	Text string `json:"text"`
}

type friendRequest struct {
	Email string `json:"email"`
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if raw == "" {
		return "", false
	}
	return raw, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps application sentinels to HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrSignupFieldsRequired),
		errors.Is(err, app.ErrUnknownPlan),
		errors.Is(err, app.ErrTitleAndContentRequired),
		errors.Is(err, app.ErrNoteNotLocked),
		errors.Is(err, app.ErrActionRequired),
		errors.Is(err, app.ErrPromptRequired),
		errors.Is(err, app.ErrTextRequired),
		errors.Is(err, app.ErrSelfFriend):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNotNoteOwner),
		errors.Is(err, app.ErrWrongNotePassword),
		errors.Is(err, app.ErrNotFriendTarget),
		errors.Is(err, app.ErrAIQuotaExceeded):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrUserNotFound),
		errors.Is(err, app.ErrNoteNotFound),
		errors.Is(err, app.ErrFriendLinkNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrEmailAlreadyExists),
		errors.Is(err, app.ErrFriendLinkExists),
		errors.Is(err, app.ErrFriendLinkNotPending):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrPhotoStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func normalizeMaxBytes(value int64) int64 {
	if value <= 0 {
		return 8 * 1024 * 1024
	}
	return value
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trustedProxies),
		"request_id", util.RequestIDFromRequest(r),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

// allowRate returns true when the limiter admits the caller. A nil limiter
// means rate limiting was not configured.
func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}
